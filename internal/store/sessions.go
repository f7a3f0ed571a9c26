package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// CreateSession inserts a new session record. A missing ID or StartedAt is
// filled in; Phase and Status default to a fresh in-progress session.
func (s *LocalStore) CreateSession(session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	if session.Status == "" {
		session.Status = types.StatusInProgress
	}

	logging.StoreDebug("Creating session: id=%s owner=%s kind=%s", session.ID, session.OwnerID, session.Kind)

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, owner_id, kind, phase, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.OwnerID, string(session.Kind), session.Phase,
		string(session.Status), session.StartedAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create session %s: %v", session.ID, err)
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindSession loads a session by id on behalf of ownerID. Returns
// types.ErrNotFound when no such session exists and types.ErrForbidden when
// it belongs to someone else.
func (s *LocalStore) FindSession(id, ownerID string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, owner_id, kind, phase, status, started_at, completed_at
		 FROM sessions WHERE id = ?`, id,
	)
	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.OwnerID != ownerID {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrForbidden)
	}
	return session, nil
}

// UpdateSessionPhase advances a session's phase and status. The phase
// invariant (never decreases) and the terminal status invariant
// (in_progress -> completed exactly once) are enforced here; completed_at is
// stamped the single time the session completes.
func (s *LocalStore) UpdateSessionPhase(id string, phase int, status types.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var curPhase int
	var curStatus string
	err := s.db.QueryRow("SELECT phase, status FROM sessions WHERE id = ?", id).Scan(&curPhase, &curStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	if types.SessionStatus(curStatus) == types.StatusCompleted {
		return fmt.Errorf("session %s: %w", id, types.ErrSessionClosed)
	}
	if phase < curPhase {
		return fmt.Errorf("phase may not decrease (%d -> %d) for session %s", curPhase, phase, id)
	}

	if status == types.StatusCompleted {
		_, err = s.db.Exec(
			`UPDATE sessions SET phase = ?, status = ?, completed_at = ? WHERE id = ?`,
			phase, string(status), time.Now().UTC(), id,
		)
	} else {
		_, err = s.db.Exec(
			`UPDATE sessions SET phase = ?, status = ? WHERE id = ?`,
			phase, string(status), id,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	logging.StoreDebug("Session updated: id=%s phase=%d status=%s", id, phase, status)
	return nil
}

// ListSessions returns all sessions owned by ownerID, most recent first.
func (s *LocalStore) ListSessions(ownerID string) ([]*types.Session, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListSessions")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, owner_id, kind, phase, status, started_at, completed_at
		 FROM sessions WHERE owner_id = ? ORDER BY started_at DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*types.Session, error) {
	var session types.Session
	var kind, status string
	var completedAt sql.NullTime
	err := row.Scan(&session.ID, &session.OwnerID, &kind, &session.Phase,
		&status, &session.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	session.Kind = types.SessionKind(kind)
	session.Status = types.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	return &session, nil
}
