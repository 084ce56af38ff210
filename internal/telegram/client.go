// Package telegram wraps the Telegram Bot API for the relay: decoding is done
// by the caller with tgbotapi.Update; this package owns sending and webhook
// registration.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tutorbot/internal/domain"
)

const (
	defaultSendTimeout = 20 * time.Second

	// Telegram caps messages at 4096 chars; stay under it so a chunk plus
	// Markdown entities never trips the limit.
	maxMessageLen = 4000
)

// Client sends messages through the Telegram Bot API. It implements
// domain.Messenger.
type Client struct {
	bot       *tgbotapi.BotAPI
	parseMode string
	logger    *slog.Logger
}

type ClientConfig struct {
	Token     string
	Endpoint  string // API endpoint format override, used by tests
	ParseMode string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewClient connects to the Bot API (getMe) and returns a send client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	c := &Client{
		bot:       bot,
		parseMode: cfg.ParseMode,
		logger:    cfg.Logger,
	}
	c.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)
	return c, nil
}

// Username returns the bot account name reported by getMe.
func (c *Client) Username() string { return c.bot.Self.UserName }

// Send delivers msg to its chat, threaded as a reply when msg.ReplyTo is set.
// Texts over the Telegram length cap are split on line boundaries; only the
// first chunk carries the reply threading. The HTTP timeout is enforced by
// the underlying client, so ctx is not consulted mid-call.
func (c *Client) Send(_ context.Context, msg domain.OutboundMessage) error {
	replyTo := msg.ReplyTo
	for _, chunk := range splitMessage(msg.Text, maxMessageLen) {
		if err := c.sendChunk(msg.ChatID, chunk, replyTo); err != nil {
			return err
		}
		replyTo = 0
	}
	return nil
}

// sendChunk sends one message. A Markdown parse error is retried once as
// plain text; generated output occasionally carries unbalanced entities.
func (c *Client) sendChunk(chatID int64, text string, replyTo int) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = c.parseMode
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}

	_, err := c.bot.Send(msg)
	if err == nil {
		return nil
	}

	if c.parseMode != "" && strings.Contains(err.Error(), "can't parse entities") {
		c.logger.Warn("telegram parse error, retrying as plain text",
			"err", err, "parseMode", c.parseMode,
		)
		plain := tgbotapi.NewMessage(chatID, text)
		if replyTo != 0 {
			plain.ReplyToMessageID = replyTo
		}
		if _, err2 := c.bot.Send(plain); err2 == nil {
			return nil
		}
	}

	return fmt.Errorf("telegram send: %w", err)
}

// RegisterWebhook points the bot's webhook at the given URL.
func (c *Client) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram webhook config: %w", err)
	}
	if _, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	c.logger.Info("telegram webhook registered", "url", url)
	return nil
}

// splitMessage breaks text into chunks of at most maxLen, preferring to cut
// at a newline when one falls in the second half of the window.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}
		cutAt := strings.LastIndex(text[:maxLen], "\n")
		if cutAt < maxLen/2 {
			cutAt = maxLen
		}
		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return chunks
}
