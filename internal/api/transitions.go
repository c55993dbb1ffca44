package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// listTransitionsResponse wraps the paginated list response.
type listTransitionsResponse struct {
	Transitions []*model.Transition `json:"transitions"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// cancelTransitionRequest is the JSON body for POST /v1/transitions/{id}/cancel.
type cancelTransitionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	transitions, total, err := s.store.ListTransitions(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list transitions", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}

	if transitions == nil {
		transitions = []*model.Transition{}
	}

	s.writeJSON(w, http.StatusOK, listTransitionsResponse{
		Transitions: transitions,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

func (s *Server) handleGetTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.store.GetTransition(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "transition not found")
		return
	}
	if err != nil {
		s.logger.Error("get transition", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get transition")
		return
	}

	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCancelTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req cancelTransitionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Reason = ""
	}
	if req.Reason == "" {
		req.Reason = "apiRequest"
	}

	if !s.service.CancelBatch(id, req.Reason) {
		s.writeError(w, http.StatusNotFound, "no in-flight batch with that id")
		return
	}

	t, err := s.store.GetTransition(r.Context(), id)
	if err != nil {
		s.logger.Error("get canceled transition", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve transition")
		return
	}

	s.writeJSON(w, http.StatusOK, t)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
