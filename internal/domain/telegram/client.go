package telegram

import (
	"time"

	"gopkg.in/telebot.v3"
)

// Message is one inbound update pulled from the messaging platform.
type Message struct {
	ChatID     int64
	UpdateID   int // monotonic, platform-assigned sequence number
	Text       string
	ReceivedAt time.Time
}

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// UpdateSource pulls not-yet-confirmed inbound messages and advances the
// platform-side read watermark. Confirmation is a separate step from
// fetching, so each message is handled before it is confirmed and never
// replayed afterwards.
type UpdateSource interface {
	FetchUpdates() ([]Message, error)
	Confirm(msg Message) error
}
