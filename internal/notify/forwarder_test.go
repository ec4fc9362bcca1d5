package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type memoryTriggers struct {
	mu       sync.Mutex
	launched map[string]bool
	err      error
}

func (m *memoryTriggers) MarkLaunched(_ context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.launched == nil {
		m.launched = make(map[string]bool)
	}
	if m.launched[orderID] {
		return false, nil
	}
	m.launched[orderID] = true
	return true, nil
}

func TestForwardPostsEnvelopeOnce(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		calls    int
		lastBody []byte
		lastUA   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastBody, _ = io.ReadAll(r.Body)
		lastUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, &memoryTriggers{})
	order := map[string]any{"id": "ord-1", "total": "1500.00"}

	if err := f.Forward(context.Background(), "ord-1", order); err != nil {
		t.Fatalf("forward: %v", err)
	}

	mu.Lock()
	if calls != 1 {
		t.Fatalf("expected 1 webhook call, got %d", calls)
	}
	if lastUA != "ShopApp/1.0" {
		t.Fatalf("unexpected user agent %q", lastUA)
	}
	var p Payload
	if err := json.Unmarshal(lastBody, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Source != "shop-app" || p.Timestamp == "" {
		t.Fatalf("unexpected envelope %+v", p)
	}
	if got := p.Order.(map[string]any)["id"]; got != "ord-1" {
		t.Fatalf("expected order in envelope, got %v", got)
	}
	mu.Unlock()

	// the second forward must be refused before the webhook is contacted
	err := f.Forward(context.Background(), "ord-1", order)
	if !errors.Is(err, ErrAlreadyLaunched) {
		t.Fatalf("expected ErrAlreadyLaunched, got %v", err)
	}
	mu.Lock()
	if calls != 1 {
		t.Fatalf("expected no further webhook calls, got %d", calls)
	}
	mu.Unlock()
}

func TestForwardRequiresOrderID(t *testing.T) {
	t.Parallel()
	f := NewForwarder("http://unused.invalid", &memoryTriggers{})
	if err := f.Forward(context.Background(), "", nil); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestForwardFlagErrorStopsPost(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("webhook must not be contacted when the flag check fails")
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, &memoryTriggers{err: errors.New("db down")})
	if err := f.Forward(context.Background(), "ord-1", nil); err == nil {
		t.Fatal("expected error from failed flag check")
	}
}

func TestForwardNonSuccessStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, &memoryTriggers{})
	if err := f.Forward(context.Background(), "ord-1", nil); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestForwardDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://elsewhere.invalid", http.StatusTemporaryRedirect)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, &memoryTriggers{})
	// a redirect is a non-2xx final response, reported as an error
	if err := f.Forward(context.Background(), "ord-1", nil); err == nil {
		t.Fatal("expected redirect response to surface as an error")
	}
}
