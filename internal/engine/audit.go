package engine

import (
	"context"
	"fmt"
	"strings"

	"boardroom/internal/gate"
	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// AnswerOutcome is the synchronous result of one quick-audit turn.
type AnswerOutcome struct {
	Gate         gate.Result     `json:"gate"`
	Phase        int             `json:"phase"`
	Completed    bool            `json:"completed"`
	NextQuestion *types.Question `json:"nextQuestion,omitempty"`
}

// SubmitAnswer runs one quick-audit turn: persist the answer, gate it, and
// either challenge or advance. A failed gate leaves the phase untouched; a
// pass advances it, completing the session on the last question. A forced
// pass additionally records exactly one gate_note so the transcript shows the
// escalation.
func (e *Engine) SubmitAnswer(ctx context.Context, ownerID, sessionID, text string) (*AnswerOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: answer text required", types.ErrInvalidInput)
	}

	session, err := e.loadOpenSession(ownerID, sessionID, types.KindQuickAudit)
	if err != nil {
		return nil, err
	}

	cat := e.catalog.Snapshot()
	question, ok := cat.Question(session.Phase)
	if !ok {
		return nil, fmt.Errorf("%w: no question at phase %d", types.ErrNotFound, session.Phase)
	}

	messages, err := e.store.ListMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	attempts := answerAttempts(messages, question.ID)

	result, err := e.gate.Evaluate(ctx, text, question, attempts)
	if err != nil {
		return nil, fmt.Errorf("%w: gate evaluation: %v", types.ErrUpstreamFailure, err)
	}

	verdict := types.GateChallenged
	if result.Passed {
		verdict = types.GatePassed
	}
	if err := e.store.CreateMessage(&types.Message{
		SessionID: sessionID,
		Speaker:   types.SpeakerUser,
		Content:   text,
		Type:      types.TypeAnswer,
		Meta: types.MessageMeta{
			QuestionID:   question.ID,
			GateResult:   verdict,
			AttemptCount: result.AttemptCount,
		},
	}); err != nil {
		return nil, fmt.Errorf("persisting answer: %w", err)
	}

	if !result.Passed {
		if err := e.store.CreateMessage(&types.Message{
			SessionID: sessionID,
			Speaker:   types.SpeakerSystem,
			Content:   result.ChallengeMessage,
			Type:      types.TypeChallenge,
			Meta: types.MessageMeta{
				QuestionID:   question.ID,
				AttemptCount: result.AttemptCount,
			},
		}); err != nil {
			return nil, fmt.Errorf("persisting challenge: %w", err)
		}
		logging.Session("session %s challenged on %s (attempt %d)", sessionID, question.ID, result.AttemptCount)
		return &AnswerOutcome{Gate: result, Phase: session.Phase}, nil
	}

	if !result.IsSpecific {
		if err := e.store.CreateMessage(&types.Message{
			SessionID: sessionID,
			Speaker:   types.SpeakerSystem,
			Content:   result.Reason,
			Type:      types.TypeGateNote,
			Meta: types.MessageMeta{
				QuestionID:   question.ID,
				AttemptCount: result.AttemptCount,
			},
		}); err != nil {
			return nil, fmt.Errorf("persisting gate note: %w", err)
		}
	}

	newPhase := session.Phase + 1
	status := types.StatusInProgress
	if newPhase >= cat.QuestionCount() {
		status = types.StatusCompleted
	}
	if err := e.store.UpdateSessionPhase(sessionID, newPhase, status); err != nil {
		return nil, fmt.Errorf("advancing session: %w", err)
	}

	outcome := &AnswerOutcome{
		Gate:      result,
		Phase:     newPhase,
		Completed: status == types.StatusCompleted,
	}
	if next, exists := cat.Question(newPhase); exists {
		outcome.NextQuestion = &next
	}
	logging.Session("session %s advanced to phase %d (completed=%v)", sessionID, newPhase, outcome.Completed)
	return outcome, nil
}
