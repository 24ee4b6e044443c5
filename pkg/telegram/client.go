package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier defines the interface for a Telegram notifier.
type Notifier interface {
	SendMessage(text string) error
	SendMessageTo(chatID int64, text string) error
}

// client is an implementation of Notifier.
type client struct {
	bot           *tgbotapi.BotAPI
	defaultChatID int64
}

// NewClient creates a new Telegram notifier client. The chat ID is the
// default destination for SendMessage.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:           bot,
		defaultChatID: chatID,
	}, nil
}

// SendMessage sends a message to the default Telegram chat.
func (c *client) SendMessage(text string) error {
	return c.SendMessageTo(c.defaultChatID, text)
}

// SendMessageTo sends a message to a specific chat.
func (c *client) SendMessageTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}
