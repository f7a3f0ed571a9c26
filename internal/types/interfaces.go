package types

import (
	"context"
)

// SessionStore is the narrow record-store surface for session records.
type SessionStore interface {
	CreateSession(session *Session) error
	FindSession(id, ownerID string) (*Session, error)
	UpdateSessionPhase(id string, phase int, status SessionStatus) error
	ListSessions(ownerID string) ([]*Session, error)
}

// MessageStore is the narrow record-store surface for message records.
// Messages are append-only; there is no update or delete.
type MessageStore interface {
	CreateMessage(msg *Message) error
	ListMessages(sessionID string) ([]*Message, error)
}

// RecordStore combines the session and message surfaces. The concrete
// implementation lives in internal/store.
type RecordStore interface {
	SessionStore
	MessageStore
}

// EventKind tags one normalized upstream event. Upstream-specific shapes are
// resolved into this closed set once, at the token source boundary, so the
// rest of the engine never inspects provider payloads.
type EventKind string

const (
	EventMessageStart EventKind = "message_start"
	EventContentDelta EventKind = "content_delta"
	EventMessageStop  EventKind = "message_stop"
	EventOther        EventKind = "other"
)

// Event is one normalized unit of upstream output.
type Event struct {
	Kind      EventKind
	MessageID string // set on message_start when the provider supplies one
	Text      string // set on content_delta
	Raw       string // original payload, kept for "other" forwarding
}

// TokenSource is the opaque generative text provider. StreamMessage returns a
// lazy, ordered, finite event sequence; the error channel carries at most one
// transport failure. Complete is the one-shot path used for gate judgments.
type TokenSource interface {
	StreamMessage(ctx context.Context, system string, history []ChatMessage) (<-chan Event, <-chan error)
	Complete(ctx context.Context, system, prompt string) (string, error)
}
