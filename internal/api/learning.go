package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
	"github.com/salescoach/salescoach/internal/ledger"
)

// LearningHandlers provides HTTP handlers for the learned "what works" patterns
type LearningHandlers struct {
	service *learning.Service
	server  *Server
}

// NewLearningHandlers creates handlers for learning endpoints
func NewLearningHandlers(service *learning.Service, server *Server) *LearningHandlers {
	return &LearningHandlers{
		service: service,
		server:  server,
	}
}

// RegisterRoutes registers learning routes on the router
func (h *LearningHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/learning", func(r chi.Router) {
		r.Get("/patterns", h.handleGetPatterns)
		r.Get("/what-works", h.handleGetWhatWorks)
		r.Post("/run", h.handleRun)
	})
}

// handleGetPatterns lists every pattern of a user, hypotheses included
// GET /api/v1/learning/patterns?user_id=
func (h *LearningHandlers) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.userID(w, r)
	if !ok {
		return
	}

	patterns, err := h.server.records.Patterns.List(r.Context(), userID)
	if err != nil {
		h.server.respondErr(w, err)
		return
	}
	if patterns == nil {
		patterns = []core.Pattern{}
	}
	h.server.respondJSON(w, http.StatusOK, patterns)
}

// handleGetWhatWorks returns the confirmed patterns as the coach sees them
// GET /api/v1/learning/what-works?user_id=
func (h *LearningHandlers) handleGetWhatWorks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.userID(w, r)
	if !ok {
		return
	}

	ww, err := h.service.WhatWorks(r.Context(), userID)
	if err != nil {
		h.server.respondErr(w, err)
		return
	}

	hora, _ := ww.BestHorario()
	h.server.respondJSON(w, http.StatusOK, map[string]interface{}{
		"empty":          ww.Empty(),
		"mejor_canal":    ww.BestCanal(),
		"tasa_canal":     ww.CanalRate(),
		"mejor_horario":  hora,
		"mejor_dia":      ww.BestDia(),
		"tasa_follow_up": ww.FollowUpRate(),
		"top":            ww.Top(3),
	})
}

// handleRun detects and stores patterns for one user
// POST /api/v1/learning/run?user_id=
func (h *LearningHandlers) handleRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.userID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	stored, err := h.service.Learn(ctx, userID)
	if err != nil {
		h.server.respondErr(w, err)
		return
	}
	h.server.metrics.AddLearned(stored)
	h.server.auditFailed(ledger.ActionPatternsLearned, h.server.ledgerRecorder.RecordPatternsLearned(ctx, userID, stored))

	h.server.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"stored":  stored,
	})
}
