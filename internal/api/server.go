// Package api provides the HTTP API server for the sales coach.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/salescoach/salescoach/internal/coach"
	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
	"github.com/salescoach/salescoach/internal/ledger"
	"github.com/salescoach/salescoach/internal/llm"
	"github.com/salescoach/salescoach/internal/logging"
	"github.com/salescoach/salescoach/internal/metrics"
	"github.com/salescoach/salescoach/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	db      *storage.DB
	records *storage.RecordStore
	engine  *coach.Engine
	wsHub   *WebSocketHub

	// Ledger (audit trail)
	ledgerStore    *ledger.Store
	ledgerRecorder *ledger.Recorder

	// Optional services
	learningService *learning.Service
	chat            *llm.Coach
	metrics         *metrics.Metrics
	now             func() time.Time
}

// Config for the server
type Config struct {
	Host            string
	Port            int
	DB              *storage.DB
	DealValue       float64
	LearningService *learning.Service
	Chat            *llm.Coach       // nil disables /chat and /speech
	Metrics         *metrics.Metrics // nil disables /metrics
	Now             func() time.Time
}

// New creates a new API server
func New(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("api server: database: %w", core.ErrMissingRequired)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ledgerStore := ledger.NewStore(cfg.DB.Conn())
	ledgerStore.SetClock(cfg.Now)

	s := &Server{
		db:              cfg.DB,
		records:         storage.NewRecordStore(cfg.DB),
		wsHub:           NewWebSocketHub(),
		ledgerStore:     ledgerStore,
		ledgerRecorder:  ledger.NewRecorder(ledgerStore),
		learningService: cfg.LearningService,
		chat:            cfg.Chat,
		metrics:         cfg.Metrics,
		now:             cfg.Now,
	}

	engine, err := coach.NewEngine(s.records, coach.Options{
		DealValue: cfg.DealValue,
		Now:       cfg.Now,
		Logger:    s.ledgerRecorder,
		Metrics:   cfg.Metrics,
		OnDecide:  s.onDecide,
	})
	if err != nil {
		return nil, fmt.Errorf("api server: %w", err)
	}
	s.engine = engine

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Engine returns the decision engine
func (s *Server) Engine() *coach.Engine {
	return s.engine
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Coach
			r.Post("/coach/decide", s.handleDecide)
			r.Get("/coach/decisions", s.handleListDecisions)

			// Profile and wizard
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Post("/wizard", s.handleWizard)

			// Pipeline records
			r.Get("/contacts", s.handleListContacts)
			r.Post("/contacts", s.handleCreateContact)
			r.Put("/contacts/{id}", s.handleUpdateContact)
			r.Delete("/contacts/{id}", s.handleDeleteContact)
			r.Get("/contacts/{id}/interactions", s.handleContactInteractions)
			r.Post("/interactions", s.handleCreateInteraction)
			r.Post("/emotional", s.handleCheckIn)
			r.Get("/goals", s.handleListGoals)
			r.Post("/goals", s.handleCreateGoal)
			r.Get("/context", s.handleGetContext)

			// Catalog
			r.Get("/services", s.handleListServices)
			r.Post("/services", s.handleCreateService)
			r.Put("/services/{id}", s.handleUpdateService)
			r.Delete("/services/{id}", s.handleDeleteService)
			r.Get("/icps", s.handleListICPs)
			r.Post("/icps", s.handleCreateICP)
			r.Put("/icps/{id}", s.handleUpdateICP)
			r.Delete("/icps/{id}", s.handleDeleteICP)

			// Learning (if service is configured)
			if s.learningService != nil {
				NewLearningHandlers(s.learningService, s).RegisterRoutes(r)
			}

			// Ledger API (read-only audit trail)
			NewLedgerAPI(s.ledgerStore, s).RegisterRoutes(r)
		})

		// LLM calls get their own budget
		if s.chat != nil {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(90 * time.Second))
				r.Post("/chat", s.handleChat)
				r.Post("/speech", s.handleSpeech)
			})
		}
	})

	// WebSocket
	r.Get("/ws", s.wsHub.ServeHTTP)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	logging.Info("API server starting on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: s.now(),
	})
}

func (s *Server) onDecide(res *coach.Result) {
	s.Broadcast("decision.created", map[string]interface{}{
		"decision_id": res.DecisionID,
		"lever":       res.CriticalLever.Type,
		"urgency":     res.CriticalLever.Urgency,
		"style":       res.Style,
		"confidence":  res.Confidence,
	})
}

// auditFailed logs a failed best-effort ledger write
func (s *Server) auditFailed(action string, err error) {
	if err != nil {
		logging.WithFields(map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		}).Warn("ledger write failed")
	}
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a domain error to its HTTP status
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		logging.WithField("error", err.Error()).Error("request failed")
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingRequired), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProfileNotFound), errors.Is(err, core.ErrContactNotFound),
		errors.Is(err, core.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, core.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// userID reads the user_id query parameter
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("user_id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "user_id required")
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Conn().PingContext(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.wsHub.ClientCount(),
		"chat":       s.chat.Available(),
	})
}
