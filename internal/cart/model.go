package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one line of a cart. At most one Item per ServiceID exists in
// a given cart; a quantity that would drop to zero removes the line
// instead.
type Item struct {
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Note      string          `json:"note,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

// ServiceRef is the slice of the catalog a cart needs to add a line.
type ServiceRef struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Totals summarizes a cart for display.
type Totals struct {
	Items int             `json:"total_items"`
	Price decimal.Decimal `json:"total_price"`
}

func totals(items []Item) Totals {
	t := Totals{Price: decimal.Zero}
	for _, it := range items {
		t.Items += it.Quantity
		t.Price = t.Price.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return t
}
