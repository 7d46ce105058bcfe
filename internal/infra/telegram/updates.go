// internal/infra/telegram/updates.go
package telegram

import (
	"encoding/json"
	"fmt"
	"time"

	domainTelegram "mensa_menu_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// UpdatePuller retrieves inbound updates through raw getUpdates calls with
// explicit offset control. telebot's built-in poller confirms updates as it
// fetches them; here confirmation must stay a separate step, so the read
// watermark only advances after a message was handled.
type UpdatePuller struct {
	bot *telebot.Bot
}

func NewUpdatePuller(b *telebot.Bot) *UpdatePuller {
	return &UpdatePuller{bot: b}
}

// FetchUpdates returns every not-yet-confirmed message. Updates without a
// message payload (edits, callbacks) are skipped.
func (p *UpdatePuller) FetchUpdates() ([]domainTelegram.Message, error) {
	data, err := p.bot.Raw("getUpdates", map[string]any{"timeout": 0})
	if err != nil {
		return nil, fmt.Errorf("calling getUpdates: %w", err)
	}

	var resp struct {
		Result []telebot.Update `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding getUpdates response: %w", err)
	}

	messages := make([]domainTelegram.Message, 0, len(resp.Result))
	for _, u := range resp.Result {
		if u.Message == nil || u.Message.Chat == nil {
			continue
		}
		messages = append(messages, domainTelegram.Message{
			ChatID:     u.Message.Chat.ID,
			UpdateID:   u.ID,
			Text:       u.Message.Text,
			ReceivedAt: time.Unix(u.Message.Unixtime, 0),
		})
	}
	return messages, nil
}

// Confirm advances the platform-side read watermark past msg, so it is never
// delivered again.
func (p *UpdatePuller) Confirm(msg domainTelegram.Message) error {
	_, err := p.bot.Raw("getUpdates", map[string]any{
		"offset":  msg.UpdateID + 1,
		"limit":   1,
		"timeout": 0,
	})
	if err != nil {
		return fmt.Errorf("advancing update offset past %d: %w", msg.UpdateID, err)
	}
	return nil
}
