// Package notify holds the post-payment side channels: the downstream
// automation webhook and the purchase-confirmation email. Both are
// best-effort; their failures never affect the user-visible success
// state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrAlreadyLaunched reports that the order id was forwarded before and
// the duplicate was skipped.
var ErrAlreadyLaunched = errors.New("order already launched")

// Payload is the envelope POSTed to the automation webhook.
type Payload struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Order     any    `json:"order"`
}

// Forwarder sends order payloads to the downstream automation webhook,
// guarded by the per-order launched flag.
type Forwarder struct {
	url      string
	triggers TriggerRepository
	client   *http.Client
}

func NewForwarder(url string, triggers TriggerRepository) *Forwarder {
	return &Forwarder{
		url:      url,
		triggers: triggers,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Forward checks the launched flag and, when this call claims it, POSTs
// the payload. A repeat for the same order returns ErrAlreadyLaunched
// without contacting the webhook.
func (f *Forwarder) Forward(ctx context.Context, orderID string, order any) error {
	if orderID == "" {
		return errors.New("missing order id")
	}

	claimed, err := f.triggers.MarkLaunched(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check launched flag: %w", err)
	}
	if !claimed {
		return ErrAlreadyLaunched
	}

	body, err := json.Marshal(Payload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "shop-app",
		Order:     order,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ShopApp/1.0")

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook status %s", res.Status)
	}
	return nil
}
