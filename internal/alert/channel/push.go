package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// PushNotifier fans one alert out to every active push subscription the
// account has registered. Endpoints that report themselves gone are
// deactivated instead of retried on future runs.
type PushNotifier struct {
	logger   *logger.Logger
	subsRepo repository.PushSubscriptionRepository
	client   *http.Client
}

// NewPushNotifier creates a web-push channel adapter.
func NewPushNotifier(log *logger.Logger, subsRepo repository.PushSubscriptionRepository) *PushNotifier {
	return &PushNotifier{
		logger:   log,
		subsRepo: subsRepo,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *PushNotifier) Kind() entity.ChannelKind {
	return entity.ChannelPush
}

func (n *PushNotifier) Send(ctx context.Context, msg Message) (*Receipt, error) {
	subs, err := n.subsRepo.FindActiveByAccount(ctx, msg.AccountID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("push: no active subscriptions for account %s", msg.AccountID)
	}

	payload, err := json.Marshal(map[string]string{
		"title": "Watchlist alert",
		"body":  msg.Text,
	})
	if err != nil {
		return nil, err
	}

	delivered := 0
	var lastErr error
	for i := range subs {
		sub := &subs[i]
		if err := n.pushTo(ctx, sub, payload); err != nil {
			lastErr = err
			n.logger.Warn("Push delivery failed",
				logger.ErrorField(err),
				logger.StringField("account_id", msg.AccountID))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return nil, lastErr
	}
	return &Receipt{}, nil
}

func (n *PushNotifier) pushTo(ctx context.Context, sub *entity.PushSubscription, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		// The subscription no longer exists on the push service.
		if err := n.subsRepo.Deactivate(ctx, sub.ID); err != nil {
			n.logger.Error("Failed to deactivate stale push subscription", logger.ErrorField(err))
		}
		return fmt.Errorf("push endpoint gone, subscription %d deactivated", sub.ID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
