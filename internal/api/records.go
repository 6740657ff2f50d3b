package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/ledger"
	"github.com/salescoach/salescoach/internal/logging"
)

// --- Profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	profile, err := s.records.Profiles.Get(r.Context(), userID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p core.Profile
	if !s.decode(w, r, &p) {
		return
	}

	ctx := r.Context()
	if existing, err := s.records.Profiles.Get(ctx, p.UserID); err == nil {
		p.CreatedAt = existing.CreatedAt
	}
	if err := s.records.Profiles.Upsert(ctx, &p); err != nil {
		s.respondErr(w, err)
		return
	}
	s.auditFailed(ledger.ActionProfileUpdated, s.ledgerRecorder.RecordProfileUpdated(ctx, &p))

	s.respondJSON(w, http.StatusOK, p)
}

// wizardRequest is what the onboarding wizard collects
type wizardRequest struct {
	UserID           string  `json:"user_id"`
	Nombre           string  `json:"nombre"`
	Negocio          string  `json:"negocio"`
	ICPPrincipal     string  `json:"icp_principal"`
	RevenueActual    float64 `json:"revenue_actual"`
	RevenueObjetivo  float64 `json:"revenue_objetivo"`
	TiempoDisponible float64 `json:"tiempo_disponible"`
	DiscProfile      string  `json:"disc_profile,omitempty"`
}

// handleWizard stores the wizard answers as a profile plus an active revenue goal
// POST /api/v1/wizard
func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	var req wizardRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Nombre == "" {
		s.respondError(w, http.StatusBadRequest, "user_id and nombre required")
		return
	}
	if req.RevenueActual < 0 || req.RevenueObjetivo < 0 || req.TiempoDisponible < 0 {
		s.respondError(w, http.StatusBadRequest, "revenue and tiempo_disponible must not be negative")
		return
	}

	ctx := r.Context()
	profile, err := s.records.Profiles.Get(ctx, req.UserID)
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		profile = &core.Profile{UserID: req.UserID}
	case err != nil:
		s.respondErr(w, err)
		return
	}

	profile.Nombre = req.Nombre
	profile.Negocio = req.Negocio
	profile.ICPPrincipal = req.ICPPrincipal
	profile.RevenueActual = req.RevenueActual
	profile.RevenueObjetivo = req.RevenueObjetivo
	profile.TiempoDisponible = req.TiempoDisponible
	if req.DiscProfile != "" {
		profile.DiscProfile = req.DiscProfile
	}

	if err := s.records.Profiles.Upsert(ctx, profile); err != nil {
		s.respondErr(w, err)
		return
	}
	goal, err := s.records.Goals.UpsertRevenueGoal(ctx, req.UserID, req.RevenueObjetivo, req.RevenueActual)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	cc, err := s.records.Context.Recompute(ctx, req.UserID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.auditFailed(ledger.ActionProfileUpdated, s.ledgerRecorder.RecordProfileUpdated(ctx, profile))

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"goal":    goal,
		"context": cc,
	})
}

// --- Contacts ---

// GET /api/v1/contacts?user_id=&stage=&order=&limit=
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := core.ContactFilter{
		Stage:   core.Stage(q.Get("stage")),
		OrderBy: core.OrderByLastInteraction,
		Limit:   queryInt(r, "limit", 0),
	}
	if order := q.Get("order"); order != "" {
		filter.OrderBy = core.ContactOrder(order)
	}
	if q.Get("include_archived") != "true" {
		filter.ExcludeArchived = true
	}

	contacts, err := s.records.Contacts.List(r.Context(), userID, filter)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if contacts == nil {
		contacts = []core.Contact{}
	}
	s.respondJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c core.Contact
	if !s.decode(w, r, &c) {
		return
	}
	c.ID = ""

	ctx := r.Context()
	if err := s.records.Contacts.Create(ctx, &c); err != nil {
		s.respondErr(w, err)
		return
	}
	s.auditFailed(ledger.ActionContactCreated, s.ledgerRecorder.RecordContactCreated(ctx, &c))

	s.respondJSON(w, http.StatusCreated, c)
}

// handleUpdateContact applies the fields present in the body to the stored contact
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, err := s.records.Contacts.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	updated := *existing
	if !s.decode(w, r, &updated) {
		return
	}
	updated.ID = existing.ID
	if updated.UserID != existing.UserID {
		s.respondErr(w, core.ErrContactNotFound)
		return
	}
	if updated.Temperatura < 0 || updated.Temperatura > 100 {
		s.respondError(w, http.StatusBadRequest, "temperatura must be within 0-100")
		return
	}

	if err := s.records.Contacts.Update(ctx, &updated); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.records.Contacts.Delete(ctx, userID, id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.auditFailed(ledger.ActionContactDeleted, s.ledgerRecorder.RecordContactDeleted(ctx, userID, id))

	w.WriteHeader(http.StatusNoContent)
}

// --- Activity ---

// handleCreateInteraction records a touchpoint and refreshes the derived context
// handleContactInteractions returns the history of one contact, newest first
func (s *Server) handleContactInteractions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	history, err := s.records.Interactions.ForContact(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if history == nil {
		history = []core.Interaction{}
	}
	s.respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var in core.Interaction
	if !s.decode(w, r, &in) {
		return
	}
	in.ID = ""

	ctx := r.Context()
	if err := s.records.Interactions.Create(ctx, &in); err != nil {
		s.respondErr(w, err)
		return
	}
	if _, err := s.records.Context.Recompute(ctx, in.UserID); err != nil {
		logging.WithFields(map[string]interface{}{
			"user_id": in.UserID,
			"error":   err.Error(),
		}).Warn("context recompute after interaction failed")
	}

	s.respondJSON(w, http.StatusCreated, in)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var e core.EmotionalState
	if !s.decode(w, r, &e) {
		return
	}
	e.ID = ""

	ctx := r.Context()
	if err := s.records.Emotional.Create(ctx, &e); err != nil {
		s.respondErr(w, err)
		return
	}
	s.auditFailed(ledger.ActionEmotionalCheckIn, s.ledgerRecorder.RecordCheckIn(ctx, &e))

	s.respondJSON(w, http.StatusCreated, e)
}

// --- Goals and context ---

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var goals []core.Goal
	var err error
	if r.URL.Query().Get("all") == "true" {
		goals, err = s.records.Goals.List(r.Context(), userID)
	} else {
		goals, err = s.records.Goals.Active(r.Context(), userID)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	s.respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if !s.decode(w, r, &g) {
		return
	}
	g.ID = ""
	if g.ValorObjetivo < 0 {
		s.respondError(w, http.StatusBadRequest, "valor_objetivo must not be negative")
		return
	}

	if err := s.records.Goals.Create(r.Context(), &g); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, g)
}

// handleGetContext returns the derived context, computing it on first use
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	cc, err := s.records.Context.Get(ctx, userID)
	if errors.Is(err, core.ErrContextNotFound) || r.URL.Query().Get("refresh") == "true" {
		cc, err = s.records.Context.Recompute(ctx, userID)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cc)
}

// --- Catalog ---

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	services, err := s.records.Services.Active(r.Context(), userID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if services == nil {
		services = []core.Service{}
	}
	s.respondJSON(w, http.StatusOK, services)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var svc core.Service
	if !s.decode(w, r, &svc) {
		return
	}
	svc.ID = ""

	if err := s.records.Services.Create(r.Context(), &svc); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var svc core.Service
	if !s.decode(w, r, &svc) {
		return
	}
	svc.ID = chi.URLParam(r, "id")
	if svc.Precio < 0 {
		s.respondError(w, http.StatusBadRequest, "precio must not be negative")
		return
	}

	if err := s.records.Services.Update(r.Context(), &svc); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, svc)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.records.Services.Deactivate(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListICPs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	icps, err := s.records.ICPs.Active(r.Context(), userID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if icps == nil {
		icps = []core.ICP{}
	}
	s.respondJSON(w, http.StatusOK, icps)
}

func (s *Server) handleCreateICP(w http.ResponseWriter, r *http.Request) {
	var icp core.ICP
	if !s.decode(w, r, &icp) {
		return
	}
	icp.ID = ""

	if err := s.records.ICPs.Create(r.Context(), &icp); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, icp)
}

func (s *Server) handleUpdateICP(w http.ResponseWriter, r *http.Request) {
	var icp core.ICP
	if !s.decode(w, r, &icp) {
		return
	}
	icp.ID = chi.URLParam(r, "id")

	if err := s.records.ICPs.Update(r.Context(), &icp); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, icp)
}

func (s *Server) handleDeleteICP(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.records.ICPs.Deactivate(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
