// Package engine owns session lifecycle and phase progression. It is the only
// writer of session state: the HTTP layer and CLI call into it, and the
// streaming adapter receives its persistence callback from it. All
// dependencies are injected at construction; the engine holds no globals and
// no in-memory session state, so a process restart loses nothing.
package engine

import (
	"fmt"
	"strings"

	"boardroom/internal/catalog"
	"boardroom/internal/config"
	"boardroom/internal/gate"
	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// Engine is the session state machine.
type Engine struct {
	store   types.RecordStore
	source  types.TokenSource
	gate    *gate.Gate
	catalog *catalog.Provider
	cfg     config.EngineConfig
}

// New wires an engine from its dependencies.
func New(store types.RecordStore, source types.TokenSource, g *gate.Gate, provider *catalog.Provider, cfg config.EngineConfig) *Engine {
	if cfg.BoardTurnsPerPhase < 1 {
		cfg.BoardTurnsPerPhase = 2
	}
	return &Engine{
		store:   store,
		source:  source,
		gate:    g,
		catalog: provider,
		cfg:     cfg,
	}
}

// StartSession creates a new in_progress session at phase 0.
func (e *Engine) StartSession(ownerID string, kind types.SessionKind) (*types.Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id required", types.ErrInvalidInput)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown session kind %q", types.ErrInvalidInput, kind)
	}

	session := &types.Session{
		OwnerID: ownerID,
		Kind:    kind,
		Phase:   0,
		Status:  types.StatusInProgress,
	}
	if err := e.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	logging.Session("started %s session %s for owner %s", kind, session.ID, ownerID)
	return session, nil
}

// Source exposes the token source for the streaming layer, which opens the
// upstream sequence itself so cancellation follows the request context.
func (e *Engine) Source() types.TokenSource {
	return e.source
}

// GetSession loads a session the owner may access.
func (e *Engine) GetSession(ownerID, sessionID string) (*types.Session, error) {
	return e.store.FindSession(sessionID, ownerID)
}

// ListSessions returns the owner's sessions, most recent first.
func (e *Engine) ListSessions(ownerID string) ([]*types.Session, error) {
	return e.store.ListSessions(ownerID)
}

// Transcript returns the ordered message history of a session the owner may
// access.
func (e *Engine) Transcript(ownerID, sessionID string) ([]*types.Message, error) {
	if _, err := e.store.FindSession(sessionID, ownerID); err != nil {
		return nil, err
	}
	return e.store.ListMessages(sessionID)
}

// loadOpenSession is the shared turn-submission precondition: the session
// must exist, belong to the owner, match the expected kind, and still be
// accepting turns.
func (e *Engine) loadOpenSession(ownerID, sessionID string, kind types.SessionKind) (*types.Session, error) {
	session, err := e.store.FindSession(sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if session.Closed() {
		return nil, fmt.Errorf("%w: session %s", types.ErrSessionClosed, sessionID)
	}
	if session.Kind != kind {
		return nil, fmt.Errorf("%w: session %s is %s, not %s", types.ErrInvalidInput, sessionID, session.Kind, kind)
	}
	return session, nil
}
