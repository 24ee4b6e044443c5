package channel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/telegram"
)

// TelegramNotifier delivers alerts to a per-account Telegram chat. The
// target is the chat ID; an empty target falls back to the bot's default
// chat.
type TelegramNotifier struct {
	notifier telegram.Notifier
}

// NewTelegramNotifier creates a Telegram channel adapter.
func NewTelegramNotifier(notifier telegram.Notifier) *TelegramNotifier {
	return &TelegramNotifier{notifier: notifier}
}

func (n *TelegramNotifier) Kind() entity.ChannelKind {
	return entity.ChannelTelegram
}

func (n *TelegramNotifier) Send(_ context.Context, msg Message) (*Receipt, error) {
	if n.notifier == nil {
		return nil, fmt.Errorf("telegram: %w", ErrNotConfigured)
	}
	if msg.Target == "" {
		if err := n.notifier.SendMessage(msg.Text); err != nil {
			return nil, err
		}
		return &Receipt{}, nil
	}

	chatID, err := strconv.ParseInt(msg.Target, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid chat id %q: %w", msg.Target, err)
	}
	if err := n.notifier.SendMessageTo(chatID, msg.Text); err != nil {
		return nil, err
	}
	return &Receipt{}, nil
}
