package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/order"
	"github.com/sklep-tm/storefront/internal/payments"
)

type stubCustomers struct {
	byKey     map[string]*customer.Customer
	addresses int
	created   int
	stripeSet map[string]string
}

func newStubCustomers() *stubCustomers {
	return &stubCustomers{
		byKey:     make(map[string]*customer.Customer),
		stripeSet: make(map[string]string),
	}
}

func (s *stubCustomers) CreateAddress(_ context.Context, a *customer.Address) error {
	s.addresses++
	a.ID = fmt.Sprintf("addr-%d", s.addresses)
	return nil
}

func (s *stubCustomers) FindByUserEmail(_ context.Context, userID, email string) (*customer.Customer, error) {
	if c, ok := s.byKey[userID+"|"+email]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, customer.ErrNotFound
}

func (s *stubCustomers) Create(_ context.Context, c *customer.Customer) error {
	s.created++
	c.ID = fmt.Sprintf("cust-%d", s.created)
	cp := *c
	s.byKey[c.UserID+"|"+c.Email] = &cp
	return nil
}

func (s *stubCustomers) SetStripeCustomerID(_ context.Context, customerID, stripeCustomerID string) error {
	s.stripeSet[customerID] = stripeCustomerID
	for _, c := range s.byKey {
		if c.ID == customerID {
			id := stripeCustomerID
			c.StripeCustomerID = &id
		}
	}
	return nil
}

func (s *stubCustomers) GetProfile(context.Context, string) (*customer.Profile, error) {
	return nil, customer.ErrNotFound
}

func (s *stubCustomers) UpsertProfile(context.Context, string, string, *customer.Customer, *customer.Address) error {
	return nil
}

func (s *stubCustomers) IsAdmin(context.Context, string) (bool, error) { return false, nil }

type stubOrders struct {
	orders        map[string]*order.Order
	items         map[string][]order.Item
	created       int
	markPaidCalls int
}

func newStubOrders() *stubOrders {
	return &stubOrders{
		orders: make(map[string]*order.Order),
		items:  make(map[string][]order.Item),
	}
}

func (s *stubOrders) Create(_ context.Context, o *order.Order, items []order.Item) error {
	s.created++
	if o.ID == "" {
		o.ID = fmt.Sprintf("ord-%d", s.created)
	}
	o.Status = order.StatusPending
	o.PaymentStatus = order.PaymentPending
	o.CreatedAt = time.Now()
	cp := *o
	s.orders[o.ID] = &cp
	s.items[o.ID] = append([]order.Item(nil), items...)
	return nil
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) GetFull(ctx context.Context, id string) (*order.Full, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &order.Full{Order: *o, Items: append([]order.Item(nil), s.items[id]...)}, nil
}

func (s *stubOrders) ListByUser(context.Context, string, int, int) ([]order.Full, error) {
	return nil, nil
}

func (s *stubOrders) MarkPaid(_ context.Context, id, paymentIntentID, stripeCustomerID string, paidAt time.Time) error {
	s.markPaidCalls++
	o, ok := s.orders[id]
	if !ok || o.PaymentStatus == order.PaymentPaid {
		return nil
	}
	o.Status = order.StatusCompleted
	o.PaymentStatus = order.PaymentPaid
	o.StripePaymentIntentID = &paymentIntentID
	o.StripeCustomerID = &stripeCustomerID
	o.PaidAt = &paidAt
	return nil
}

func (s *stubOrders) GetItems(_ context.Context, orderID string) ([]order.Item, error) {
	return append([]order.Item(nil), s.items[orderID]...), nil
}

type stubProvider struct {
	session          payments.Session
	sessionErr       error
	createdCustomers int
	lastSessionReq   payments.SessionRequest
}

func (s *stubProvider) CreateCustomer(_ context.Context, _, _ string, _ map[string]string) (string, error) {
	s.createdCustomers++
	return fmt.Sprintf("cus_%d", s.createdCustomers), nil
}

func (s *stubProvider) ListCustomers(context.Context, int64) ([]payments.Customer, error) {
	return nil, nil
}

func (s *stubProvider) CreateSession(_ context.Context, req payments.SessionRequest) (payments.Session, error) {
	s.lastSessionReq = req
	return payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (s *stubProvider) GetSession(context.Context, string) (payments.Session, error) {
	return s.session, s.sessionErr
}

func (s *stubProvider) InvoicePDFURL(context.Context, string) (string, error) {
	return "https://pay.example/invoice.pdf", nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testForm() BillingForm {
	return BillingForm{
		CompanyName:      "Firma Testowa Sp. z o.o.",
		NIP:              "1234567890",
		ContactFirstName: "Jan",
		ContactLastName:  "Kowalski",
		ContactPhone:     "+48 600 000 000",
		Street:           "ul. Prosta 1",
		City:             "Warszawa",
		PostalCode:       "00-001",
		Country:          "PL",
	}
}

func testItems() []cart.Item {
	return []cart.Item{
		{ServiceID: "svc-1", Name: "Audit", Price: price("1500.00"), Quantity: 2},
		{ServiceID: "svc-2", Name: "Training", Price: price("800.50"), Quantity: 1, Note: "online"},
	}
}

func TestSubmitHappyPath(t *testing.T) {
	t.Parallel()
	customers := newStubCustomers()
	orders := newStubOrders()
	provider := &stubProvider{}
	p := NewPipeline(customers, orders, provider, "https://shop.example")

	id := Identity{UserID: "user-1", Email: "jan@firma.pl"}
	sub, err := p.Submit(context.Background(), id, testForm(), testItems())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.OrderID == "" || sub.CustomerID == "" {
		t.Fatalf("expected ids in submission, got %+v", sub)
	}
	if sub.RedirectURL != "https://pay.example/cs_1" {
		t.Fatalf("unexpected redirect url %q", sub.RedirectURL)
	}

	if customers.addresses != 1 || customers.created != 1 {
		t.Fatalf("expected 1 address and 1 customer, got %d/%d", customers.addresses, customers.created)
	}
	// the form carried no email; the token identity fills in
	if _, ok := customers.byKey["user-1|jan@firma.pl"]; !ok {
		t.Fatal("expected customer keyed by user id and token email")
	}

	o := orders.orders[sub.OrderID]
	if o == nil || o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		t.Fatalf("expected pending order, got %+v", o)
	}
	items := orders.items[sub.OrderID]
	if len(items) != 2 {
		t.Fatalf("expected 2 snapshot items, got %d", len(items))
	}
	if !items[0].Price.Equal(price("1500.00")) || items[0].Quantity != 2 {
		t.Fatalf("unexpected snapshot line %+v", items[0])
	}
	if items[1].Note == nil || *items[1].Note != "online" {
		t.Fatalf("expected note carried into snapshot, got %+v", items[1].Note)
	}

	if provider.createdCustomers != 1 {
		t.Fatalf("expected 1 provider customer, got %d", provider.createdCustomers)
	}
	if got := customers.stripeSet[sub.CustomerID]; got != "cus_1" {
		t.Fatalf("expected provider customer id persisted, got %q", got)
	}

	req := provider.lastSessionReq
	if req.CustomerID != "cus_1" || req.OrderID != sub.OrderID || req.AppCustomerID != sub.CustomerID {
		t.Fatalf("unexpected session request %+v", req)
	}
	if len(req.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(req.LineItems))
	}
	if req.LineItems[0].UnitAmount != 150000 || req.LineItems[0].Quantity != 2 {
		t.Fatalf("expected 150000 minor units x2, got %+v", req.LineItems[0])
	}
	if req.LineItems[1].UnitAmount != 80050 {
		t.Fatalf("expected 80050 minor units, got %d", req.LineItems[1].UnitAmount)
	}
	if req.SuccessURL != "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.example/checkout" {
		t.Fatalf("unexpected cancel url %q", req.CancelURL)
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	t.Parallel()
	p := NewPipeline(newStubCustomers(), newStubOrders(), &stubProvider{}, "https://shop.example")

	_, err := p.Submit(context.Background(), Identity{UserID: "user-1"}, testForm(), nil)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	t.Parallel()
	p := NewPipeline(newStubCustomers(), newStubOrders(), &stubProvider{}, "https://shop.example")

	_, err := p.Submit(context.Background(), Identity{}, testForm(), testItems())
	if err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestSubmitReusesCustomerAndProviderID(t *testing.T) {
	t.Parallel()
	customers := newStubCustomers()
	stripeID := "cus_existing"
	customers.byKey["user-1|jan@firma.pl"] = &customer.Customer{
		ID:               "cust-seeded",
		UserID:           "user-1",
		Email:            "jan@firma.pl",
		StripeCustomerID: &stripeID,
	}
	orders := newStubOrders()
	provider := &stubProvider{}
	p := NewPipeline(customers, orders, provider, "https://shop.example")

	sub, err := p.Submit(context.Background(), Identity{UserID: "user-1", Email: "jan@firma.pl"}, testForm(), testItems())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.CustomerID != "cust-seeded" {
		t.Fatalf("expected existing customer reused, got %q", sub.CustomerID)
	}
	if customers.created != 0 {
		t.Fatalf("expected no new customer, got %d", customers.created)
	}
	if provider.createdCustomers != 0 {
		t.Fatalf("expected no new provider customer, got %d", provider.createdCustomers)
	}
	if provider.lastSessionReq.CustomerID != "cus_existing" {
		t.Fatalf("expected seeded provider id on session, got %q", provider.lastSessionReq.CustomerID)
	}
}

func TestSubmitSkipsNonPositiveQuantities(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	provider := &stubProvider{}
	p := NewPipeline(newStubCustomers(), orders, provider, "https://shop.example")

	items := []cart.Item{
		{ServiceID: "svc-1", Name: "Audit", Price: price("100"), Quantity: 1},
		{ServiceID: "svc-0", Name: "Ghost", Price: price("50"), Quantity: 0},
	}
	sub, err := p.Submit(context.Background(), Identity{UserID: "user-1", Email: "a@b.pl"}, testForm(), items)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := orders.items[sub.OrderID]; len(got) != 1 || got[0].ServiceID != "svc-1" {
		t.Fatalf("expected zero-quantity line skipped, got %+v", got)
	}
	if len(provider.lastSessionReq.LineItems) != 1 {
		t.Fatalf("expected 1 session line item, got %d", len(provider.lastSessionReq.LineItems))
	}
}

func TestVerifyUnpaidSession(t *testing.T) {
	t.Parallel()
	orders := newStubOrders()
	provider := &stubProvider{session: payments.Session{
		ID:            "cs_1",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"order_id": "ord-1"},
	}}
	p := NewPipeline(newStubCustomers(), orders, provider, "https://shop.example")

	_, err := p.Verify(context.Background(), "cs_1")
	if !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected ErrPaymentIncomplete, got %v", err)
	}
	if orders.markPaidCalls != 0 {
		t.Fatal("expected no MarkPaid call for an unpaid session")
	}
}

func TestVerifyMarksPaidAndReplaysIdempotently(t *testing.T) {
	t.Parallel()
	customers := newStubCustomers()
	customers.byKey["user-1|a@b.pl"] = &customer.Customer{ID: "cust-1", UserID: "user-1", Email: "a@b.pl"}
	orders := newStubOrders()
	o := &order.Order{CustomerID: "cust-1", UserID: "user-1"}
	snapshot := []order.Item{{ServiceID: "svc-1", Name: "Audit", Price: price("1500.00"), Quantity: 2}}
	if err := orders.Create(context.Background(), o, snapshot); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	provider := &stubProvider{session: payments.Session{
		ID:              "cs_1",
		PaymentStatus:   payments.PaymentStatusPaid,
		PaymentIntentID: "pi_1",
		CustomerID:      "cus_1",
		Metadata:        map[string]string{"order_id": o.ID, "customer_id": "cust-1"},
	}}
	p := NewPipeline(customers, orders, provider, "https://shop.example")

	full, err := p.Verify(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if full.Status != order.StatusCompleted || full.PaymentStatus != order.PaymentPaid {
		t.Fatalf("expected completed/paid order, got %s/%s", full.Status, full.PaymentStatus)
	}
	if full.StripePaymentIntentID == nil || *full.StripePaymentIntentID != "pi_1" {
		t.Fatalf("expected payment intent recorded, got %+v", full.StripePaymentIntentID)
	}
	if full.PaidAt == nil {
		t.Fatal("expected paid_at stamped")
	}
	if customers.stripeSet["cust-1"] != "cus_1" {
		t.Fatal("expected provider customer id back-filled")
	}
	if want := price("3000.00"); !full.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, full.Total())
	}

	firstPaidAt := *full.PaidAt
	again, err := p.Verify(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("replayed verify: %v", err)
	}
	if len(again.Items) != 1 {
		t.Fatalf("expected replay to keep a single snapshot, got %d items", len(again.Items))
	}
	if !again.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("expected paid_at unchanged on replay, got %s then %s", firstPaidAt, *again.PaidAt)
	}
}

func TestVerifySessionWithoutOrderReference(t *testing.T) {
	t.Parallel()
	provider := &stubProvider{session: payments.Session{
		ID:            "cs_1",
		PaymentStatus: payments.PaymentStatusPaid,
	}}
	p := NewPipeline(newStubCustomers(), newStubOrders(), provider, "https://shop.example")

	if _, err := p.Verify(context.Background(), "cs_1"); err == nil {
		t.Fatal("expected error for session without order metadata")
	}
}
