package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/sony/gobreaker"
)

const webhookBodyCaptureLimit = 500

// WebhookNotifier posts alert text as JSON to a per-account webhook URL.
// A circuit breaker keeps a dead endpoint from slowing every delivery run.
type WebhookNotifier struct {
	logger  *logger.Logger
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewWebhookNotifier creates a chat-webhook channel adapter.
func NewWebhookNotifier(log *logger.Logger) *WebhookNotifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chat-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &WebhookNotifier{
		logger:  log,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: breaker,
	}
}

func (n *WebhookNotifier) Kind() entity.ChannelKind {
	return entity.ChannelWebhook
}

func (n *WebhookNotifier) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if msg.Target == "" {
		return nil, fmt.Errorf("webhook: %w", ErrNotConfigured)
	}

	payload, err := json.Marshal(map[string]string{"text": msg.Text})
	if err != nil {
		return nil, err
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, msg.Target, payload)
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{}, nil
}

func (n *WebhookNotifier) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Capture a bounded slice of the body for diagnostics.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, webhookBodyCaptureLimit))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
