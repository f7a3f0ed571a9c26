package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"boardroom/internal/types"
)

// memStore is an in-memory RecordStore with the same contract as the SQLite
// store: owner checks, monotonic phase, append-only ordered messages.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*types.Session
	messages []*types.Message

	failCreateMessage error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*types.Session)}
}

func (m *memStore) CreateSession(session *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	if session.Status == "" {
		session.Status = types.StatusInProgress
	}
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *memStore) FindSession(id, ownerID string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	if session.OwnerID != ownerID {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrForbidden)
	}
	clone := *session
	return &clone, nil
}

func (m *memStore) UpdateSessionPhase(id string, phase int, status types.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	if session.Status == types.StatusCompleted {
		return fmt.Errorf("session %s: %w", id, types.ErrSessionClosed)
	}
	if phase < session.Phase {
		return fmt.Errorf("session %s: phase may not move backwards (%d -> %d)", id, session.Phase, phase)
	}
	session.Phase = phase
	if status == types.StatusCompleted && session.Status != types.StatusCompleted {
		now := time.Now()
		session.Status = types.StatusCompleted
		session.CompletedAt = &now
	}
	return nil
}

func (m *memStore) ListSessions(ownerID string) ([]*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Session
	for _, session := range m.sessions {
		if session.OwnerID == ownerID {
			clone := *session
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStore) CreateMessage(msg *types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateMessage != nil {
		return m.failCreateMessage
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	clone := *msg
	m.messages = append(m.messages, &clone)
	return nil
}

func (m *memStore) ListMessages(sessionID string) ([]*types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			clone := *msg
			out = append(out, &clone)
		}
	}
	return out, nil
}

// scriptedSource serves a canned Complete reply and a scripted event stream.
type scriptedSource struct {
	completeReply string
	completeErr   error
	events        []types.Event
	streamErr     error
}

func (s *scriptedSource) Complete(context.Context, string, string) (string, error) {
	return s.completeReply, s.completeErr
}

func (s *scriptedSource) StreamMessage(ctx context.Context, _ string, _ []types.ChatMessage) (<-chan types.Event, <-chan error) {
	eventChan := make(chan types.Event, len(s.events))
	errChan := make(chan error, 1)
	go func() {
		defer close(eventChan)
		defer close(errChan)
		for _, ev := range s.events {
			select {
			case eventChan <- ev:
			case <-ctx.Done():
				return
			}
		}
		if s.streamErr != nil {
			errChan <- s.streamErr
		}
	}()
	return eventChan, errChan
}
