package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salescoach/salescoach/internal/ledger"
)

// LedgerAPI provides read-only access to the audit ledger
type LedgerAPI struct {
	store  *ledger.Store
	server *Server
}

// NewLedgerAPI creates a new ledger API
func NewLedgerAPI(store *ledger.Store, server *Server) *LedgerAPI {
	return &LedgerAPI{store: store, server: server}
}

// RegisterRoutes registers ledger API routes (all read-only)
func (api *LedgerAPI) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", api.handleListEntries)                        // GET /api/v1/ledger
		r.Get("/summary", api.handleGetSummary)                  // GET /api/v1/ledger/summary
		r.Get("/verify", api.handleVerifyChain)                  // GET /api/v1/ledger/verify
		r.Get("/entry/{id}", api.handleGetEntry)                 // GET /api/v1/ledger/entry/{id}
		r.Get("/entity/{type}/{id}", api.handleGetEntityHistory) // GET /api/v1/ledger/entity/{type}/{id}
	})
}

// handleListEntries returns ledger entries with optional filtering
// GET /api/v1/ledger?action=&actor=&entity_type=&entity_id=&since=&until=&limit=&offset=
func (api *LedgerAPI) handleListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := ledger.QueryOptions{
		Action:     query.Get("action"),
		Actor:      query.Get("actor"),
		EntityType: query.Get("entity_type"),
		EntityID:   query.Get("entity_id"),
		Limit:      queryInt(r, "limit", 100),
		Offset:     queryInt(r, "offset", 0),
	}

	if since := query.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			api.server.respondError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		opts.Since = t
	}
	if until := query.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			api.server.respondError(w, http.StatusBadRequest, "until must be RFC3339")
			return
		}
		opts.Until = t
	}

	ctx := r.Context()
	entries, err := api.store.Query(ctx, opts)
	if err != nil {
		api.server.respondErr(w, err)
		return
	}
	if entries == nil {
		entries = []*ledger.Entry{}
	}

	count, _ := api.store.Count(ctx)

	api.server.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   count,
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}

// handleGetSummary returns ledger statistics
func (api *LedgerAPI) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := api.store.GetSummary(r.Context())
	if err != nil {
		api.server.respondErr(w, err)
		return
	}
	api.server.respondJSON(w, http.StatusOK, summary)
}

// handleVerifyChain verifies the hash chain
func (api *LedgerAPI) handleVerifyChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, _ := api.store.Count(ctx)

	result := map[string]interface{}{
		"entries_checked": count,
		"verified_at":     api.server.now().UTC(),
	}
	if err := api.store.VerifyChain(ctx); err != nil {
		result["valid"] = false
		result["error"] = err.Error()
	} else {
		result["valid"] = true
	}

	api.server.respondJSON(w, http.StatusOK, result)
}

// handleGetEntry returns one entry by ID
func (api *LedgerAPI) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := api.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.server.respondErr(w, err)
		return
	}
	if entry == nil {
		api.server.respondError(w, http.StatusNotFound, "Entry not found")
		return
	}
	api.server.respondJSON(w, http.StatusOK, entry)
}

// handleGetEntityHistory returns every entry for one entity
func (api *LedgerAPI) handleGetEntityHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := api.store.GetEntityHistory(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		api.server.respondErr(w, err)
		return
	}
	if entries == nil {
		entries = []*ledger.Entry{}
	}
	api.server.respondJSON(w, http.StatusOK, entries)
}
