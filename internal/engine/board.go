package engine

import (
	"context"
	"fmt"
	"strings"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// BoardOutcome is the synchronous result of one board-meeting turn. The
// director's actual reply arrives through the stream the caller opens next.
type BoardOutcome struct {
	Phase     int           `json:"phase"`
	Persona   types.Persona `json:"persona"`
	Completed bool          `json:"completed"`
}

// SubmitMessage runs one board-meeting turn: append the user's message and
// compute phase advancement. The phase increments once its user-turn quota is
// met; the session completes when the phase has moved past the last persona
// and the total user-turn floor is reached. Both thresholds come from
// configuration.
func (e *Engine) SubmitMessage(_ context.Context, ownerID, sessionID, text string) (*BoardOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text required", types.ErrInvalidInput)
	}

	session, err := e.loadOpenSession(ownerID, sessionID, types.KindBoardMeeting)
	if err != nil {
		return nil, err
	}

	phase := session.Phase
	if err := e.store.CreateMessage(&types.Message{
		SessionID: sessionID,
		Speaker:   types.SpeakerUser,
		Content:   text,
		Type:      types.TypeUserMessage,
		Meta:      types.MessageMeta{Phase: &phase},
	}); err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	messages, err := e.store.ListMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	total, inPhase := userTurnCounts(messages, phase)

	cat := e.catalog.Snapshot()
	newPhase := phase
	if inPhase >= e.cfg.BoardTurnsPerPhase {
		newPhase = phase + 1
	}

	status := types.StatusInProgress
	if newPhase >= cat.PhaseCount() && total >= e.cfg.BoardMinUserTurns {
		status = types.StatusCompleted
	}

	if newPhase != phase || status == types.StatusCompleted {
		if err := e.store.UpdateSessionPhase(sessionID, newPhase, status); err != nil {
			return nil, fmt.Errorf("advancing session: %w", err)
		}
	}

	persona, _ := cat.PersonaForPhase(newPhase)
	outcome := &BoardOutcome{
		Phase:     newPhase,
		Persona:   persona,
		Completed: status == types.StatusCompleted,
	}
	logging.SessionDebug("session %s board turn: phase %d->%d, turns %d total (completed=%v)",
		sessionID, phase, newPhase, total, outcome.Completed)
	return outcome, nil
}
