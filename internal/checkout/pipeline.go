// Package checkout turns a cart plus a billing profile into a paid
// order through the hosted payment page.
//
// Each attempt walks a linear state machine:
//
//	cart-ready -> submitting-order -> awaiting-payment -> verifying -> paid | verification-failed
//
// Submit covers cart-ready through awaiting-payment and ends in a full
// browser redirect to the provider; Verify covers the return leg.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/order"
	"github.com/sklep-tm/storefront/internal/payments"
)

// State names one step of a checkout attempt.
type State string

const (
	StateCartReady          State = "cart-ready"
	StateSubmittingOrder    State = "submitting-order"
	StateAwaitingPayment    State = "awaiting-payment"
	StateVerifying          State = "verifying"
	StatePaid               State = "paid"
	StateVerificationFailed State = "verification-failed"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentIncomplete means the provider reported a non-paid
	// session. The caller routes back to checkout and keeps the cart.
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// Identity is the signed-in user submitting the checkout.
type Identity struct {
	UserID string
	Email  string
}

// BillingForm is the checkout form: company data, contact person and
// billing address.
type BillingForm struct {
	Email            string  `json:"email"`
	CompanyName      string  `json:"company_name"`
	NIP              string  `json:"nip"`
	REGON            *string `json:"regon,omitempty"`
	KRS              *string `json:"krs,omitempty"`
	ContactFirstName string  `json:"contact_first_name"`
	ContactLastName  string  `json:"contact_last_name"`
	ContactPhone     string  `json:"contact_phone"`
	ContactPosition  *string `json:"contact_position,omitempty"`
	Street           string  `json:"street"`
	City             string  `json:"city"`
	PostalCode       string  `json:"postal_code"`
	Country          string  `json:"country"`
}

// Submission is the outcome of a successful Submit: where to send the
// browser, and the rows it produced.
type Submission struct {
	OrderID     string `json:"order_id"`
	CustomerID  string `json:"customer_id"`
	RedirectURL string `json:"redirect_url"`
}

type Pipeline struct {
	customers customer.Repository
	orders    order.Repository
	provider  payments.Provider
	baseURL   string
	now       func() time.Time
}

func NewPipeline(customers customer.Repository, orders order.Repository, provider payments.Provider, baseURL string) *Pipeline {
	return &Pipeline{
		customers: customers,
		orders:    orders,
		provider:  provider,
		baseURL:   baseURL,
		now:       time.Now,
	}
}

// Submit materializes the order (address, resolve-or-create customer,
// pending order, item snapshot) and creates the hosted payment session.
//
// The four writes are not one transaction and there is no automatic
// compensation: a failure part-way leaves the earlier rows in place and
// the caller retries with the cart intact. Orphaned address/customer
// rows from a failed attempt are accepted; an order row is only written
// after its customer resolved, and stays pending until payment is
// verified.
func (p *Pipeline) Submit(ctx context.Context, id Identity, form BillingForm, items []cart.Item) (*Submission, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if id.UserID == "" {
		return nil, errors.New("authenticated user required")
	}
	email := form.Email
	if email == "" {
		email = id.Email
	}

	// submitting-order
	addr := &customer.Address{
		Street:     form.Street,
		City:       form.City,
		PostalCode: form.PostalCode,
		Country:    form.Country,
	}
	if err := p.customers.CreateAddress(ctx, addr); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	cust, err := p.customers.FindByUserEmail(ctx, id.UserID, email)
	if err != nil && !errors.Is(err, customer.ErrNotFound) {
		return nil, fmt.Errorf("look up customer: %w", err)
	}
	if cust == nil {
		cust = &customer.Customer{
			UserID:           id.UserID,
			Email:            email,
			CompanyName:      form.CompanyName,
			NIP:              form.NIP,
			REGON:            form.REGON,
			KRS:              form.KRS,
			ContactFirstName: form.ContactFirstName,
			ContactLastName:  form.ContactLastName,
			ContactPhone:     form.ContactPhone,
			ContactPosition:  form.ContactPosition,
			AddressID:        &addr.ID,
		}
		if err := p.customers.Create(ctx, cust); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
	}

	o := &order.Order{CustomerID: cust.ID, UserID: id.UserID}
	orderItems := make([]order.Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		orderItems = append(orderItems, order.Item{
			ServiceID: it.ServiceID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Note:      noteOrNil(it.Note),
		})
	}
	if err := p.orders.Create(ctx, o, orderItems); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// awaiting-payment: resolve the provider-customer id before the
	// session, persisting a freshly created one immediately.
	stripeID := ""
	if cust.StripeCustomerID != nil {
		stripeID = *cust.StripeCustomerID
	}
	if stripeID == "" {
		name := form.ContactFirstName + " " + form.ContactLastName
		stripeID, err = p.provider.CreateCustomer(ctx, email, name, map[string]string{
			"user_id":  id.UserID,
			"order_id": o.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("create provider customer: %w", err)
		}
		if err := p.customers.SetStripeCustomerID(ctx, cust.ID, stripeID); err != nil {
			return nil, fmt.Errorf("persist provider customer id: %w", err)
		}
	}

	lineItems := make([]payments.LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		lineItems = append(lineItems, payments.LineItem{
			Name:       it.Name,
			UnitAmount: payments.MinorUnits(it.Price),
			Quantity:   int64(it.Quantity),
		})
	}

	sess, err := p.provider.CreateSession(ctx, payments.SessionRequest{
		CustomerID:    stripeID,
		OrderID:       o.ID,
		AppCustomerID: cust.ID,
		LineItems:     lineItems,
		SuccessURL:    p.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     p.baseURL + "/checkout",
	})
	if err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	return &Submission{OrderID: o.ID, CustomerID: cust.ID, RedirectURL: sess.URL}, nil
}

// Verify resolves the session with the provider after the redirect
// back. A paid session marks the order completed/paid idempotently,
// back-fills the customer's provider id, and returns the full order.
// Any other payment status fails with ErrPaymentIncomplete. Replaying
// Verify for an already-paid session re-reads the completed order and
// never writes a second snapshot.
func (p *Pipeline) Verify(ctx context.Context, sessionID string) (*order.Full, error) {
	sess, err := p.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve session: %w", err)
	}
	if !sess.Paid() {
		return nil, fmt.Errorf("%w: status=%s", ErrPaymentIncomplete, sess.PaymentStatus)
	}

	orderID := sess.Metadata["order_id"]
	if orderID == "" {
		return nil, errors.New("session has no order reference")
	}

	if err := p.orders.MarkPaid(ctx, orderID, sess.PaymentIntentID, sess.CustomerID, p.now()); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if custID := sess.Metadata["customer_id"]; custID != "" && sess.CustomerID != "" {
		if err := p.customers.SetStripeCustomerID(ctx, custID, sess.CustomerID); err != nil {
			// back-fill only; the order outcome stands
			log.Printf("[checkout] backfill provider customer id: %v", err)
		}
	}

	full, err := p.orders.GetFull(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return full, nil
}

func noteOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
