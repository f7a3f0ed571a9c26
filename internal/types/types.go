// Package types provides shared type definitions used across boardroom packages.
// This package exists to break import cycles between engine, gate, stream, and
// store. Types here are foundational data structures with no complex dependencies.
package types

import (
	"time"
)

// =============================================================================
// SESSION TYPES
// =============================================================================

// SessionKind identifies the interaction style of a session.
type SessionKind string

const (
	KindQuickAudit   SessionKind = "quick_audit"
	KindBoardMeeting SessionKind = "board_meeting"
)

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == KindQuickAudit || k == KindBoardMeeting
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Session is one guided multi-turn interaction owned by a user.
// Phase is monotonically non-decreasing for the lifetime of the session;
// Status moves in_progress -> completed exactly once and is terminal.
type Session struct {
	ID          string
	OwnerID     string
	Kind        SessionKind
	Phase       int
	Status      SessionStatus
	StartedAt   time.Time
	CompletedAt *time.Time // set iff Status == completed
}

// Closed reports whether the session accepts no further turns.
func (s *Session) Closed() bool {
	return s.Status == StatusCompleted
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// MessageType classifies one turn's content within a session. The set is a
// durable contract: reporting and export readers depend on these literals.
type MessageType string

const (
	TypeUserMessage      MessageType = "user_message"
	TypeDirectorResponse MessageType = "director_response"
	TypeAnswer           MessageType = "answer"
	TypeChallenge        MessageType = "challenge"
	TypeGateNote         MessageType = "gate_note"
)

// SpeakerUser and SpeakerSystem are the two reserved speaker literals.
// Any other speaker value is a persona identifier.
const (
	SpeakerUser   = "user"
	SpeakerSystem = "system"
)

// GateResult records the gate's verdict on an answer message.
type GateResult string

const (
	GatePassed     GateResult = "passed"
	GateChallenged GateResult = "challenged"
)

// MessageMeta is the typed metadata variant attached to a message. It is
// stored as an encoded blob but decoded exactly once at the read boundary,
// so readers never inspect raw payloads.
type MessageMeta struct {
	QuestionID   string     `json:"question_id,omitempty"`
	GateResult   GateResult `json:"gate_result,omitempty"`
	AttemptCount int        `json:"attempt_count,omitempty"`
	DirectorName string     `json:"director_name,omitempty"`
	Phase        *int       `json:"phase,omitempty"`
}

// Empty reports whether the meta carries no fields worth persisting.
func (m MessageMeta) Empty() bool {
	return m.QuestionID == "" && m.GateResult == "" && m.AttemptCount == 0 &&
		m.DirectorName == "" && m.Phase == nil
}

// Message is one turn's content within a session. Messages are append-only
// and totally ordered by CreatedAt; replaying them in order deterministically
// reconstructs the conversation history sent to the token source.
type Message struct {
	ID        string
	SessionID string
	Speaker   string // "user", "system", or a persona id
	Content   string
	Type      MessageType
	Meta      MessageMeta
	CreatedAt time.Time
}

// =============================================================================
// CATALOG TYPES (static configuration, not persisted per-user)
// =============================================================================

// Question is one audit question with its acceptance criteria.
type Question struct {
	ID          string   `yaml:"id" json:"id"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Criteria    string   `yaml:"criteria" json:"criteria,omitempty"`         // free-text rubric for the judgment call
	MustMention []string `yaml:"must_mention" json:"mustMention,omitempty"` // structured predicate: terms a specific answer touches
	Ordinal     int      `yaml:"ordinal" json:"ordinal"`
}

// Persona is a named simulated participant with a fixed instruction template.
type Persona struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Instructions string `yaml:"instructions" json:"-"`
}

// =============================================================================
// CONVERSATION TYPES
// =============================================================================

// Role tags one reconstructed history entry for the token source.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one role-tagged entry in a reconstructed conversation.
type ChatMessage struct {
	Role    Role
	Content string
}
