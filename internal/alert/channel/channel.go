package channel

import (
	"context"
	"errors"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// ErrNotConfigured is returned by placeholder adapters so delivery reports
// stay accurate instead of silently dropping a configured channel.
var ErrNotConfigured = errors.New("channel is not configured")

// Message is one rendered alert bound for a single channel target.
type Message struct {
	AccountID string
	Target    string
	Text      string
	Severity  entity.Severity
}

// Receipt carries provider-side identifiers for a successful delivery.
type Receipt struct {
	ExternalID string
}

// Notifier delivers a message through one channel. Implementations return
// an error for every failure; the delivery engine aggregates per-channel
// outcomes.
type Notifier interface {
	Kind() entity.ChannelKind
	Send(ctx context.Context, msg Message) (*Receipt, error)
}
