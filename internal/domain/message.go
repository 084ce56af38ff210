package domain

import "context"

// Outcome classifies how an inbound update was handled. Every update maps to
// exactly one outcome, and every outcome is acknowledged to the platform with
// HTTP 200 so that Telegram never re-delivers.
type Outcome string

const (
	// OutcomeRejected means the webhook path secret did not match.
	OutcomeRejected Outcome = "rejected"
	// OutcomeIgnored means the update carried no text message (photos,
	// stickers, membership events). Acknowledged and dropped.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeHandled means the tutor reply was generated and sent.
	OutcomeHandled Outcome = "handled"
	// OutcomeFailed means the completion failed and a diagnostic message
	// was sent to the chat instead of a tutor reply.
	OutcomeFailed Outcome = "failed"
)

// InboundMessage is the slice of a Telegram update the relay cares about.
type InboundMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// OutboundMessage is a reply addressed back to the originating chat.
// ReplyTo of zero means the message is not threaded.
type OutboundMessage struct {
	ChatID  int64
	Text    string
	ReplyTo int
}

// Completer produces a completion for a fully rendered prompt. An empty
// string with a nil error is a valid result and means the provider returned
// no usable text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Messenger delivers a message to a chat on the messaging platform.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}
