package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

const currency = "pln"

// StripeProvider implements Provider on the official Stripe SDK.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(apiKey string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cus.ID, nil
}

func (p *StripeProvider) ListCustomers(ctx context.Context, limit int64) ([]Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	var out []Customer
	it := p.api.Customers.List(params)
	for it.Next() {
		c := it.Customer()
		name := c.Name
		if name == "" {
			name = c.Email
		}
		out = append(out, Customer{
			ID:       c.ID,
			Email:    c.Email,
			Name:     name,
			Phone:    c.Phone,
			Metadata: c.Metadata,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list stripe customers: %w", err)
	}
	return out, nil
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "blik", "p24"}),
		LineItems:          lineItems,
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		InvoiceCreation: &stripe.CheckoutSessionInvoiceCreationParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("customer_id", req.AppCustomerID)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) GetSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("invoice")

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Session{}, fmt.Errorf("retrieve checkout session: %w", err)
	}

	out := Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Invoice != nil {
		out.InvoiceID = s.Invoice.ID
	}
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out, nil
}

func (p *StripeProvider) InvoicePDFURL(ctx context.Context, invoiceID string) (string, error) {
	params := &stripe.InvoiceParams{Params: stripe.Params{Context: ctx}}
	inv, err := p.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve invoice: %w", err)
	}
	return inv.InvoicePDF, nil
}
