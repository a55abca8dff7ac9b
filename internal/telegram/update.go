// Package telegram adapts Bot API updates to domain messages and sends
// replies through the Bot API.
package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chatledger/internal/core"
)

// Update wraps the Bot API update so the webhook can convert it.
type Update struct {
	tgbotapi.Update
}

// DecodeUpdate parses a webhook body.
func DecodeUpdate(body []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(body, &u); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}

// ChatMessage converts the update into the domain message. It returns false
// when there is nothing to act on: no message, no chat, or no text (stickers,
// photos, service messages).
func (u Update) ChatMessage() (core.Message, bool) {
	m := u.Message
	if m == nil || m.Chat == nil || m.Chat.ID == 0 {
		return core.Message{}, false
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return core.Message{}, false
	}
	return core.Message{ChatID: m.Chat.ID, Text: text}, true
}
