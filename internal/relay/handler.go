// Package relay implements the webhook pipeline: Telegram update in, Gemini
// completion out, reply back to the originating chat.
package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"tutorbot/internal/domain"
	"tutorbot/internal/metrics"
	"tutorbot/internal/prompt"
	"tutorbot/internal/provider"
)

const maxBodySize = 1 << 20 // 1MB max

// ack is the body returned to the webhook caller. Always sent with HTTP 200:
// a failure status would make Telegram re-deliver the update and double-post
// the reply.
type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler processes inbound webhook updates. It holds no mutable state, so
// concurrent updates need no coordination beyond their own outbound calls.
type Handler struct {
	secret    string
	completer domain.Completer
	messenger domain.Messenger
	logger    *slog.Logger
}

type HandlerConfig struct {
	Secret    string
	Completer domain.Completer
	Messenger domain.Messenger
	Logger    *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		secret:    cfg.Secret,
		completer: cfg.Completer,
		messenger: cfg.Messenger,
		logger:    cfg.Logger,
	}
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(chi.URLParam(r, "secret")), []byte(h.secret)) != 1 {
		metrics.UpdatesRejected.Inc()
		h.logger.Warn("webhook secret mismatch", "remote", r.RemoteAddr)
		writeJSON(w, ack{OK: false, Error: "bad secret"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		metrics.UpdatesIgnored.Inc()
		h.logger.Warn("unreadable webhook body", "err", err)
		writeJSON(w, ack{OK: true})
		return
	}
	defer r.Body.Close()

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		metrics.UpdatesIgnored.Inc()
		h.logger.Warn("undecodable webhook body", "err", err)
		writeJSON(w, ack{OK: true})
		return
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		// Photos, stickers, membership events: acknowledged and dropped.
		metrics.UpdatesIgnored.Inc()
		writeJSON(w, ack{OK: true})
		return
	}

	// Telegram only needs the receipt acknowledged; a webhook retry or
	// client disconnect must not cancel an in-flight completion.
	h.relay(context.WithoutCancel(r.Context()), domain.InboundMessage{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      strings.TrimSpace(msg.Text),
	})

	writeJSON(w, ack{OK: true})
}

// relay runs the two-call pipeline for one text update: complete, then send.
// Completion failures are converted into a diagnostic chat message rather
// than surfaced to the webhook caller; nothing is retried.
func (h *Handler) relay(ctx context.Context, in domain.InboundMessage) domain.Outcome {
	logger := h.logger.With(
		"relay_id", uuid.NewString(),
		"chat_id", in.ChatID,
		"message_id", in.MessageID,
	)

	start := time.Now()
	text, err := h.completer.Complete(ctx, prompt.Render(in.Text))
	metrics.CompletionLatency.Observe(time.Since(start).Seconds())

	outcome := domain.OutcomeHandled
	if err != nil {
		outcome = domain.OutcomeFailed
		var se *provider.StatusError
		if errors.As(err, &se) {
			text = fmt.Sprintf("API error: %d – %s", se.Code, se.Body)
		} else {
			text = fmt.Sprintf("Error: %v", err)
		}
		logger.Error("completion failed", "err", err)
	} else if text == "" {
		logger.Warn("empty completion, sending fallback")
		text = prompt.Fallback()
	}

	if err := h.messenger.Send(ctx, domain.OutboundMessage{
		ChatID:  in.ChatID,
		Text:    text,
		ReplyTo: in.MessageID,
	}); err != nil {
		metrics.SendErrors.Inc()
		logger.Error("chat send failed", "err", err)
	}

	switch outcome {
	case domain.OutcomeFailed:
		metrics.UpdatesFailed.Inc()
	default:
		metrics.UpdatesHandled.Inc()
		logger.Info("update relayed", "latency", time.Since(start), "reply_len", len(text))
	}
	return outcome
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
