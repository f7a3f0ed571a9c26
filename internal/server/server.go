// Package server is the thin HTTP layer over the session engine. Handlers
// validate input, delegate, and map engine errors onto status codes; no
// session logic lives here.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"boardroom/internal/engine"
	"boardroom/internal/logging"
	"boardroom/internal/stream"
	"boardroom/internal/types"
)

// ownerHeader carries the caller's identity. Authentication proper happens in
// front of this service; the header stands in for the validated credential.
const ownerHeader = "X-Owner-ID"

type Server struct {
	engine  *engine.Engine
	adapter *stream.Adapter
}

func New(eng *engine.Engine) *Server {
	return &Server{
		engine:  eng,
		adapter: stream.NewAdapter(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSubmitMessage)
	mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleStream)
	return mux
}

// owner extracts the caller identity, failing the request when absent.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(ownerHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing " + ownerHeader + " header"})
		return "", false
	}
	return id, true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.APIError("encoding response: %v", err)
	}
}

// writeError maps engine sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, types.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrUpstreamFailure):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logging.APIError("internal error: %v", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
