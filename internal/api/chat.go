package api

import (
	"errors"
	"net/http"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/llm"
)

type chatRequest struct {
	UserID  string        `json:"user_id"`
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

// handleChat answers a conversational message with the user's profile as context
// POST /api/v1/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "Message required")
		return
	}

	ctx := r.Context()
	var profile *core.Profile
	if req.UserID != "" {
		p, err := s.records.Profiles.Get(ctx, req.UserID)
		switch {
		case err == nil:
			profile = p
		case !errors.Is(err, core.ErrProfileNotFound):
			s.respondErr(w, err)
			return
		}
	}

	reply, err := s.chat.Chat(ctx, profile, req.Message, req.History)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

// handleSpeech drafts a personalized outreach message
// POST /api/v1/speech {"persona": {...}, "contexto": {...}}
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req llm.SpeechRequest
	if !s.decode(w, r, &req) {
		return
	}

	speech, err := s.chat.GenerateSpeech(r.Context(), req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"speech": speech})
}
