package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/db"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetFull(ctx context.Context, id string) (*Full, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Full, error)
	MarkPaid(ctx context.Context, id, paymentIntentID, stripeCustomerID string, paidAt time.Time) error
	GetItems(ctx context.Context, orderID string) ([]Item, error)
}

type PGRepo struct{ db db.Querier }

func NewPGRepo(q db.Querier) *PGRepo { return &PGRepo{db: q} }

// Create inserts the order in pending state together with its item
// snapshot in one transaction.
func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Status = StatusPending
	o.PaymentStatus = PaymentPending

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, user_id, status, payment_status, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		RETURNING created_at
	`, o.ID, o.CustomerID, o.UserID, o.Status, o.PaymentStatus).Scan(&o.CreatedAt); err != nil {
		return err
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, service_id, name, price, quantity, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, items[i].ID, o.ID, items[i].ServiceID, items[i].Name,
			items[i].Price.String(), items[i].Quantity, items[i].Note); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderColumns = `
	id, customer_id, user_id, status, payment_status,
	stripe_payment_intent_id, stripe_customer_id, created_at, paid_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.UserID, &o.Status, &o.PaymentStatus,
		&o.StripePaymentIntentID, &o.StripeCustomerID, &o.CreatedAt, &o.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id=$1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid transitions the order to completed/paid, stamping the
// paid-at time and the provider identifiers. The guard on
// payment_status makes replays no-ops and forbids backward transitions.
func (r *PGRepo) MarkPaid(ctx context.Context, id, paymentIntentID, stripeCustomerID string, paidAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    status = $3,
		    stripe_payment_intent_id = $4,
		    stripe_customer_id = $5,
		    paid_at = $6
		WHERE id = $1 AND payment_status <> $2
	`, id, PaymentPaid, StatusCompleted, paymentIntentID, stripeCustomerID, paidAt)
	if err != nil {
		return err
	}
	// zero rows means already paid or unknown id; GetByID disambiguates
	// for callers that care, replayed verifications do not.
	_ = tag.RowsAffected()
	return nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, service_id, name, price::text, quantity, note
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServiceID, &it.Name, &price, &it.Quantity, &it.Note); err != nil {
			return nil, err
		}
		var err error
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetFull reads the order joined with customer, address and items.
func (r *PGRepo) GetFull(ctx context.Context, id string) (*Full, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	full := &Full{Order: *o}

	var (
		c                             customer.Customer
		a                             customer.Address
		street, city, postal, country *string
	)
	err = r.db.QueryRow(ctx, `
		SELECT c.id, c.user_id, c.email, c.company_name, c.nip, c.regon, c.krs,
		       c.contact_first_name, c.contact_last_name, c.contact_phone, c.contact_position,
		       c.address_id, c.stripe_customer_id, c.created_at,
		       a.street, a.city, a.postal_code, a.country
		FROM customers c
		LEFT JOIN addresses a ON a.id = c.address_id
		WHERE c.id = $1
	`, o.CustomerID).Scan(
		&c.ID, &c.UserID, &c.Email, &c.CompanyName, &c.NIP, &c.REGON, &c.KRS,
		&c.ContactFirstName, &c.ContactLastName, &c.ContactPhone, &c.ContactPosition,
		&c.AddressID, &c.StripeCustomerID, &c.CreatedAt,
		&street, &city, &postal, &country,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		full.Customer = &c
		if c.AddressID != nil && street != nil {
			a.ID = *c.AddressID
			a.Street, a.City, a.PostalCode, a.Country = *street, *city, *postal, *country
			full.Address = &a
		}
	}

	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	full.Items = items
	return full, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Full, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Full
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Full{Order: *o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.GetItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}
