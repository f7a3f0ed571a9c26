package engine

import (
	"fmt"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// auditDirector is the fixed persona fronting quick-audit sessions. Board
// meetings draw theirs from the catalog instead.
var auditDirector = types.Persona{
	ID:   "director",
	Name: "The Director",
	Instructions: "You are a seasoned company director running a short, candid audit. " +
		"React to the founder's latest answer in two or three sentences, then move the " +
		"conversation forward. Be direct and warm. Never invent facts the founder did not state.",
}

// StreamContext carries everything the streaming adapter needs for one turn:
// the active persona, the system instruction, the reconstructed history, and
// the callback that durably records the director's full reply.
type StreamContext struct {
	Session *types.Session
	Persona types.Persona
	System  string
	History []types.ChatMessage

	// Persist writes the turn's director_response message. The streaming
	// adapter invokes it exactly once, when the full text is known.
	Persist func(fullText string) error
}

// OpenStream prepares a director-response turn. It loads the session,
// replays its history, and selects the persona for the current phase.
// Completed sessions may still stream: the turn that completes a session is
// followed by the director's closing reply.
func (e *Engine) OpenStream(ownerID, sessionID string) (*StreamContext, error) {
	session, err := e.store.FindSession(sessionID, ownerID)
	if err != nil {
		return nil, err
	}

	messages, err := e.store.ListMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	history := reconstructHistory(messages)
	if len(history) == 0 || history[len(history)-1].Role != types.RoleUser {
		return nil, fmt.Errorf("%w: no pending user turn to respond to", types.ErrInvalidInput)
	}

	persona, system := e.turnPersona(session)

	phase := session.Phase
	persist := func(fullText string) error {
		err := e.store.CreateMessage(&types.Message{
			SessionID: sessionID,
			Speaker:   persona.ID,
			Content:   fullText,
			Type:      types.TypeDirectorResponse,
			Meta: types.MessageMeta{
				DirectorName: persona.Name,
				Phase:        &phase,
			},
		})
		if err != nil {
			return fmt.Errorf("%w: recording director response: %v", types.ErrPersistenceFailure, err)
		}
		return nil
	}

	logging.Stream("opening %s stream for session %s (phase %d, persona %s)",
		session.Kind, sessionID, session.Phase, persona.ID)
	return &StreamContext{
		Session: session,
		Persona: persona,
		System:  system,
		History: history,
		Persist: persist,
	}, nil
}

// turnPersona resolves the speaking persona and its system instruction for
// the session's current phase.
func (e *Engine) turnPersona(session *types.Session) (types.Persona, string) {
	cat := e.catalog.Snapshot()

	if session.Kind == types.KindQuickAudit {
		system := auditDirector.Instructions
		if question, ok := cat.Question(session.Phase); ok {
			system = fmt.Sprintf("%s\n\nThe question now on the table: %s", system, question.Prompt)
		} else {
			system += "\n\nThe audit is finished. Close with a brief, honest summary of what you heard."
		}
		return auditDirector, system
	}

	persona, _ := cat.PersonaForPhase(session.Phase)
	system := fmt.Sprintf("You are %s, a member of the board in a simulated board meeting.\n\n%s\n\n"+
		"Stay in character. Keep replies under four sentences and end with a pointed question when the meeting is still open.",
		persona.Name, persona.Instructions)
	if session.Closed() {
		system = fmt.Sprintf("You are %s. The board meeting is over. Deliver a short closing statement.\n\n%s",
			persona.Name, persona.Instructions)
	}
	return persona, system
}
