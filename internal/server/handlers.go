package server

import (
	"encoding/json"
	"net/http"
	"time"

	"boardroom/internal/logging"
	"boardroom/internal/stream"
	"boardroom/internal/types"
)

type sessionView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Phase       int        `json:"phase"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type messageView struct {
	ID        string            `json:"id"`
	Speaker   string            `json:"speaker"`
	Content   string            `json:"content"`
	Type      string            `json:"type"`
	Meta      types.MessageMeta `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func viewSession(s *types.Session) sessionView {
	return sessionView{
		ID:          s.ID,
		Kind:        string(s.Kind),
		Phase:       s.Phase,
		Status:      string(s.Status),
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var body struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	session, err := s.engine.StartSession(ownerID, types.SessionKind(body.Kind))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewSession(session))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	sessions, err := s.engine.ListSessions(ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, viewSession(session))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	session, err := s.engine.GetSession(ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := s.engine.Transcript(ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView{
			ID:        msg.ID,
			Speaker:   msg.Speaker,
			Content:   msg.Content,
			Type:      string(msg.Type),
			Meta:      msg.Meta,
			CreatedAt: msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Session  sessionView   `json:"session"`
		Messages []messageView `json:"messages"`
	}{viewSession(session), views})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	outcome, err := s.engine.SubmitAnswer(r.Context(), ownerID, r.PathValue("id"), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	outcome, err := s.engine.SubmitMessage(r.Context(), ownerID, r.PathValue("id"), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return "", false
	}
	return body.Text, true
}

// handleStream responds with the turn's chunk sequence as server-sent
// events. Validation failures surface as normal JSON errors before any SSE
// bytes are written; once streaming starts, the terminal chunk is the only
// completion signal.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	sc, err := s.engine.OpenStream(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, errs := s.engine.Source().StreamMessage(r.Context(), sc.System, sc.History)
	chunks := s.adapter.Run(r.Context(), events, errs, sc.Persona, sc.Persist)

	eventID := 0
	for chunk := range chunks {
		if err := stream.WriteSSE(w, chunk, eventID); err != nil {
			// Client went away; the adapter observes the request context.
			logging.APIDebug("stream write failed: %v", err)
			return
		}
		flusher.Flush()
		eventID++
	}
}
