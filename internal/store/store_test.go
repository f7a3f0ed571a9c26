package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardroom/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndFindSession(t *testing.T) {
	s := newTestStore(t)

	session := &types.Session{OwnerID: "owner-1", Kind: types.KindQuickAudit}
	require.NoError(t, s.CreateSession(session))
	require.NotEmpty(t, session.ID)

	found, err := s.FindSession(session.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, types.KindQuickAudit, found.Kind)
	assert.Equal(t, 0, found.Phase)
	assert.Equal(t, types.StatusInProgress, found.Status)
	assert.Nil(t, found.CompletedAt)

	t.Run("unknown id is NotFound", func(t *testing.T) {
		_, err := s.FindSession("nope", "owner-1")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("wrong owner is Forbidden", func(t *testing.T) {
		_, err := s.FindSession(session.ID, "owner-2")
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestUpdateSessionPhase(t *testing.T) {
	s := newTestStore(t)

	session := &types.Session{OwnerID: "owner-1", Kind: types.KindQuickAudit}
	require.NoError(t, s.CreateSession(session))

	require.NoError(t, s.UpdateSessionPhase(session.ID, 1, types.StatusInProgress))
	require.NoError(t, s.UpdateSessionPhase(session.ID, 2, types.StatusInProgress))

	t.Run("phase may not decrease", func(t *testing.T) {
		err := s.UpdateSessionPhase(session.ID, 1, types.StatusInProgress)
		assert.Error(t, err)
	})

	t.Run("completion stamps completed_at once", func(t *testing.T) {
		require.NoError(t, s.UpdateSessionPhase(session.ID, 3, types.StatusCompleted))

		found, err := s.FindSession(session.ID, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, types.StatusCompleted, found.Status)
		require.NotNil(t, found.CompletedAt)
		assert.WithinDuration(t, time.Now().UTC(), *found.CompletedAt, 5*time.Second)
	})

	t.Run("completed session rejects further updates", func(t *testing.T) {
		err := s.UpdateSessionPhase(session.ID, 4, types.StatusInProgress)
		assert.ErrorIs(t, err, types.ErrSessionClosed)
	})

	t.Run("unknown session is NotFound", func(t *testing.T) {
		err := s.UpdateSessionPhase("nope", 1, types.StatusInProgress)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateSession(&types.Session{
			OwnerID:   "owner-1",
			Kind:      types.KindBoardMeeting,
			StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.CreateSession(&types.Session{OwnerID: "owner-2", Kind: types.KindQuickAudit}))

	sessions, err := s.ListSessions("owner-1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	// Most recent first.
	assert.True(t, sessions[0].StartedAt.After(sessions[2].StartedAt))
}

func TestListSessionsSurfacesCorruptRow(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(&types.Session{OwnerID: "owner-1", Kind: types.KindQuickAudit}))

	// A row whose phase cannot scan as an integer must fail the listing,
	// not silently vanish from it.
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, owner_id, kind, phase, status) VALUES (?, ?, ?, ?, ?)`,
		"corrupt", "owner-1", "quick_audit", "not-a-number", "in_progress",
	)
	require.NoError(t, err)

	_, err = s.ListSessions("owner-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan")
}

func TestMessages(t *testing.T) {
	s := newTestStore(t)

	session := &types.Session{OwnerID: "owner-1", Kind: types.KindQuickAudit}
	require.NoError(t, s.CreateSession(session))

	phase := 2
	msgs := []*types.Message{
		{SessionID: session.ID, Speaker: types.SpeakerUser, Content: "my answer", Type: types.TypeAnswer,
			Meta: types.MessageMeta{QuestionID: "q_bets", GateResult: types.GateChallenged, AttemptCount: 1}},
		{SessionID: session.ID, Speaker: "skeptic", Content: "push back", Type: types.TypeChallenge,
			Meta: types.MessageMeta{QuestionID: "q_bets", AttemptCount: 1}},
		{SessionID: session.ID, Speaker: "skeptic", Content: "a reply", Type: types.TypeDirectorResponse,
			Meta: types.MessageMeta{DirectorName: "The Skeptic", Phase: &phase}},
		{SessionID: session.ID, Speaker: types.SpeakerSystem, Content: "note", Type: types.TypeGateNote},
	}
	for _, m := range msgs {
		require.NoError(t, s.CreateMessage(m))
	}

	listed, err := s.ListMessages(session.ID)
	require.NoError(t, err)
	require.Len(t, listed, 4)

	t.Run("creation order preserved", func(t *testing.T) {
		for i, m := range listed {
			assert.Equal(t, msgs[i].Content, m.Content, "message %d", i)
		}
	})

	t.Run("meta decodes to the typed struct", func(t *testing.T) {
		assert.Equal(t, "q_bets", listed[0].Meta.QuestionID)
		assert.Equal(t, types.GateChallenged, listed[0].Meta.GateResult)
		assert.Equal(t, 1, listed[0].Meta.AttemptCount)

		require.NotNil(t, listed[2].Meta.Phase)
		assert.Equal(t, 2, *listed[2].Meta.Phase)
		assert.Equal(t, "The Skeptic", listed[2].Meta.DirectorName)
	})

	t.Run("empty meta round-trips as empty", func(t *testing.T) {
		assert.True(t, listed[3].Meta.Empty())
	})

	t.Run("count by type", func(t *testing.T) {
		n, err := s.CountMessages(session.ID, types.TypeGateNote)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestSchemaVersionRecorded(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, CurrentSchemaVersion, GetSchemaVersion(s.db))
}
