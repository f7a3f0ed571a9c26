package engine

import (
	"boardroom/internal/types"
)

// reconstructHistory replays stored messages in order into the role-tagged
// history the token source consumes. The user speaker maps to the user role;
// every persona and the system speaker map to assistant. Gate notes are
// bookkeeping and never reach the model. Gated answers are replayed as-is,
// never re-validated.
func reconstructHistory(messages []*types.Message) []types.ChatMessage {
	history := make([]types.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Type == types.TypeGateNote {
			continue
		}
		role := types.RoleAssistant
		if msg.Speaker == types.SpeakerUser {
			role = types.RoleUser
		}
		history = append(history, types.ChatMessage{Role: role, Content: msg.Content})
	}
	return history
}

// answerAttempts counts stored answers for one question. Every answer before
// a pass was challenged, so this is exactly the number of failed attempts.
// Deriving it from durable messages means a restart cannot reset the
// escalation clock.
func answerAttempts(messages []*types.Message, questionID string) int {
	attempts := 0
	for _, msg := range messages {
		if msg.Type == types.TypeAnswer && msg.Meta.QuestionID == questionID {
			attempts++
		}
	}
	return attempts
}

// userTurnCounts tallies board-meeting user turns: the session total and the
// count attributed to the given phase.
func userTurnCounts(messages []*types.Message, phase int) (total, inPhase int) {
	for _, msg := range messages {
		if msg.Type != types.TypeUserMessage {
			continue
		}
		total++
		if msg.Meta.Phase != nil && *msg.Meta.Phase == phase {
			inPhase++
		}
	}
	return total, inPhase
}
