package api

import (
	"net/http"

	"github.com/halverson/marionette/internal/store"
)

// statsResponse combines journal aggregates with the in-flight batch count.
type statsResponse struct {
	store.TransitionStats
	Live int `json:"live"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetTransitionStats(r.Context())
	if err != nil {
		s.logger.Error("get transition stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		TransitionStats: *stats,
		Live:            s.service.LiveCount(),
	})
}
