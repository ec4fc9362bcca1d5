package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/db"
)

// Mirror is the server-held copy of a signed-in user's cart, keyed by
// (userID, serviceID). Row writes are independently idempotent;
// concurrent writers resolve last-write-wins per row.
type Mirror interface {
	UpsertItem(ctx context.Context, userID string, item Item) error
	DeleteItem(ctx context.Context, userID, serviceID string) error
	DeleteAll(ctx context.Context, userID string) error
	List(ctx context.Context, userID string) ([]Item, error)
}

type PGMirror struct{ db db.Querier }

func NewPGMirror(q db.Querier) *PGMirror { return &PGMirror{db: q} }

func (m *PGMirror) UpsertItem(ctx context.Context, userID string, item Item) error {
	_, err := m.db.Exec(ctx, `
		INSERT INTO cart_items (user_id, service_id, name, price, quantity, note, added_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (user_id, service_id) DO UPDATE
		SET name = EXCLUDED.name,
		    price = EXCLUDED.price,
		    quantity = EXCLUDED.quantity,
		    note = EXCLUDED.note,
		    updated_at = NOW()
	`, userID, item.ServiceID, item.Name, item.Price.String(), item.Quantity, nullable(item.Note), item.AddedAt)
	return err
}

func (m *PGMirror) DeleteItem(ctx context.Context, userID, serviceID string) error {
	_, err := m.db.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id=$1 AND service_id=$2
	`, userID, serviceID)
	return err
}

func (m *PGMirror) DeleteAll(ctx context.Context, userID string) error {
	_, err := m.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

func (m *PGMirror) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := m.db.Query(ctx, `
		SELECT service_id, name, price::text, quantity, COALESCE(note, ''), added_at
		FROM cart_items WHERE user_id=$1
		ORDER BY added_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ServiceID, &it.Name, &price, &it.Quantity, &it.Note, &it.AddedAt); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
