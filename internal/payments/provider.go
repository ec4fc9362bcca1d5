// Package payments wraps the hosted payment provider. The storefront
// never sees card data; it creates hosted checkout sessions and reads
// their outcome back.
package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is one priced entry of a checkout session. UnitAmount is in
// minor currency units, computed server-side from the catalog price.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// MinorUnits converts a decimal major-unit price to minor units,
// rounding to the nearest unit.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	CustomerID    string // provider-customer id
	OrderID       string
	AppCustomerID string
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string // "paid" | "unpaid" | "no_payment_required"
	PaymentIntentID string
	CustomerID      string
	InvoiceID       string
	CustomerEmail   string
	Metadata        map[string]string
}

const PaymentStatusPaid = "paid"

// Paid reports whether the session's payment completed.
func (s Session) Paid() bool { return s.PaymentStatus == PaymentStatusPaid }

// Customer is a provider-side billing entity, distinct from the
// application's own customer rows.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Phone    string            `json:"phone,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Provider interface {
	// CreateCustomer registers a billing entity with the provider and
	// returns its provider-customer id. Metadata links back to the
	// application's user and order.
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	ListCustomers(ctx context.Context, limit int64) ([]Customer, error)
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// InvoicePDFURL resolves the downloadable PDF for the session's
	// invoice, when invoice creation was enabled.
	InvoicePDFURL(ctx context.Context, invoiceID string) (string, error)
}
