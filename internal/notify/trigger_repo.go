package notify

import (
	"context"
	"time"

	"github.com/sklep-tm/storefront/internal/db"
)

// TriggerRepository records the launched flag per order id so the
// downstream automation is notified at most once.
type TriggerRepository interface {
	// MarkLaunched records the flag for orderID. It returns true when
	// this call claimed the flag, false when the order was already
	// launched.
	MarkLaunched(ctx context.Context, orderID string) (bool, error)
}

type PGTriggerRepo struct{ db db.Querier }

func NewPGTriggerRepo(q db.Querier) *PGTriggerRepo { return &PGTriggerRepo{db: q} }

func (r *PGTriggerRepo) MarkLaunched(ctx context.Context, orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO automation_triggers (order_id, is_launched)
		VALUES ($1, TRUE)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
