package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// CreateMessage appends a message record. Messages are never updated or
// deleted; the (session_id, created_at) index keeps ordered replay cheap.
func (s *LocalStore) CreateMessage(msg *types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var metaJSON sql.NullString
	if !msg.Meta.Empty() {
		data, err := json.Marshal(msg.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode message meta: %w", err)
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}

	logging.StoreDebug("Creating message: session=%s speaker=%s type=%s len=%d",
		msg.SessionID, msg.Speaker, msg.Type, len(msg.Content))

	_, err := s.db.Exec(
		`INSERT INTO messages (id, session_id, speaker, content, message_type, meta_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Speaker, msg.Content, string(msg.Type), metaJSON, msg.CreatedAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create message for session %s: %v", msg.SessionID, err)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages returns every message of a session in creation order. The
// rowid tiebreak keeps replay deterministic when timestamps collide within
// the clock's resolution.
func (s *LocalStore) ListMessages(sessionID string) ([]*types.Message, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListMessages")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, session_id, speaker, content, message_type, meta_json, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at, rowid`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*types.Message
	for rows.Next() {
		var msg types.Message
		var msgType string
		var metaJSON sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Speaker, &msg.Content,
			&msgType, &metaJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Type = types.MessageType(msgType)
		if metaJSON.Valid && metaJSON.String != "" {
			// Decoded once here, at the read boundary; readers get the
			// typed struct and never touch the blob.
			if err := json.Unmarshal([]byte(metaJSON.String), &msg.Meta); err != nil {
				logging.Get(logging.CategoryStore).Warn("Undecodable meta on message %s: %v", msg.ID, err)
			}
		}
		messages = append(messages, &msg)
	}

	logging.StoreDebug("Listed %d messages for session=%s", len(messages), sessionID)
	return messages, rows.Err()
}

// CountMessages returns the number of messages of a given type for a session.
func (s *LocalStore) CountMessages(sessionID string, msgType types.MessageType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE session_id = ? AND message_type = ?`,
		sessionID, string(msgType),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
