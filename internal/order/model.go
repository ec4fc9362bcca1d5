package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/customer"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type Order struct {
	ID                    string        `json:"id"`
	CustomerID            string        `json:"customer_id"`
	UserID                string        `json:"user_id"`
	Status                Status        `json:"status"`
	PaymentStatus         PaymentStatus `json:"payment_status"`
	StripePaymentIntentID *string       `json:"stripe_payment_intent_id,omitempty"`
	StripeCustomerID      *string       `json:"stripe_customer_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	PaidAt                *time.Time    `json:"paid_at,omitempty"`
}

// Item is a snapshot of a cart line at order-creation time. Immutable
// once written: later price changes to the service never alter it.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Note      *string         `json:"note,omitempty"`
}

// Full is an order joined with its customer, address and items, as
// returned after payment verification for display and notification.
type Full struct {
	Order
	Customer *customer.Customer `json:"customer,omitempty"`
	Address  *customer.Address  `json:"address,omitempty"`
	Items    []Item             `json:"items"`
}

// Total sums price*quantity over the order's items.
func (f *Full) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range f.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
