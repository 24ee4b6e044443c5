package channel

import (
	"context"
	"fmt"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// SMSNotifier is a placeholder until an SMS provider is wired in. It always
// fails so accounts that configure the channel see it in delivery reports.
type SMSNotifier struct{}

// NewSMSNotifier creates the SMS placeholder adapter.
func NewSMSNotifier() *SMSNotifier {
	return &SMSNotifier{}
}

func (n *SMSNotifier) Kind() entity.ChannelKind {
	return entity.ChannelSMS
}

func (n *SMSNotifier) Send(_ context.Context, _ Message) (*Receipt, error) {
	return nil, fmt.Errorf("sms: %w", ErrNotConfigured)
}
