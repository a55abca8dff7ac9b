package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "chatledger/internal/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const DefaultAPIBase = "https://api.telegram.org"

// ErrTransport marks a failed delivery. Callers log it and move on.
var ErrTransport = errors.New("telegram transport error")

type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient does not call getMe; the token is first used by SendMessage.
func NewClient(apiBase, token string, opts ...ClientOption) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	c := &Client{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	c.bot = &tgbotapi.BotAPI{Token: token, Client: c.httpClient, Buffer: 100}
	c.bot.SetAPIEndpoint(strings.TrimRight(apiBase, "/") + "/bot%s/%s")
	return c
}

// ctxDoer binds outgoing Bot API requests to ctx.
type ctxDoer struct {
	ctx    context.Context
	client tgbotapi.HTTPClient
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(d.ctx))
}

// SendMessage posts text to the chat with Markdown formatting. Non-empty
// choices are shown as a reply keyboard. Every failure wraps ErrTransport.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, choices []string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb := CategoryKeyboard(choices); kb != nil {
		msg.ReplyMarkup = kb
	}

	bot := *c.bot
	bot.Client = ctxDoer{ctx: ctx, client: c.httpClient}

	if _, err := bot.Send(msg); err != nil {
		// The URL carries the token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: sendMessage: %v", ErrTransport, err)
	}

	logger().DebugContext(ctx, "Message sent", "chat_id", chatID, "menu", len(choices) > 0)
	return nil
}

func logger() *slog.Logger {
	return slog.Default().With(applog.FieldComponent, applog.ComponentTelegram)
}
