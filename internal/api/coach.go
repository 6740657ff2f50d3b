package api

import (
	"net/http"
	"strings"
)

type decideRequest struct {
	UserID string `json:"user_id"`
}

// handleDecide runs the decision pipeline for a user
// POST /api/v1/coach/decide {"user_id": "..."}
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.Decide(r.Context(), strings.TrimSpace(req.UserID))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, res)
}

// handleListDecisions returns the logged decisions of a user, newest first
// GET /api/v1/coach/decisions?user_id=&limit=
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	decisions, err := s.ledgerRecorder.ListDecisions(r.Context(), userID, queryInt(r, "limit", 20))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"count":     len(decisions),
	})
}
