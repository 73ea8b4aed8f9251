// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moneta/internal/log"
	"moneta/internal/services"
)

// Server wires the ledger services into an HTTP surface. All state
// lives in the services; the server itself only parses, dispatches and
// renders.
type Server struct {
	accounts    *services.AccountService
	categories  *services.CategoryService
	payments    *services.PaymentService
	recurring   *services.RecurringService
	processor   *services.RecurringProcessor
	logger      *log.Logger
	rateLimiter *rateLimiter
	httpServer  *http.Server
	started     time.Time
}

type Config struct {
	Port        int
	Accounts    *services.AccountService
	Categories  *services.CategoryService
	Payments    *services.PaymentService
	Recurring   *services.RecurringService
	Processor   *services.RecurringProcessor
	Logger      *log.Logger
	RateLimit   int           // requests per interval per client, 0 disables
	RateWindow  time.Duration // defaults to one minute
	ReadTimeout time.Duration
}

func NewServer(cfg Config) *Server {
	s := &Server{
		accounts:   cfg.Accounts,
		categories: cfg.Categories,
		payments:   cfg.Payments,
		recurring:  cfg.Recurring,
		processor:  cfg.Processor,
		logger:     cfg.Logger,
		started:    time.Now(),
	}
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window == 0 {
			window = time.Minute
		}
		s.rateLimiter = newRateLimiter(cfg.RateLimit, window)
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("POST /api/accounts/{id}/deactivate", s.handleDeactivateAccount)
	mux.HandleFunc("POST /api/accounts/{id}/reconcile", s.handleReconcileAccount)
	mux.HandleFunc("GET /api/accounts/{id}/payments", s.handleListAccountPayments)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/payments", s.handleCreatePayment)
	mux.HandleFunc("GET /api/payments/{id}", s.handleGetPayment)
	mux.HandleFunc("PUT /api/payments/{id}", s.handleUpdatePayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)
	mux.HandleFunc("POST /api/payments/{id}/recurring", s.handleMakeRecurring)
	mux.HandleFunc("DELETE /api/payments/{id}/recurring", s.handleStopRecurring)

	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/recurring/{id}", s.handleGetRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /api/recurring/materialize", s.handleMaterialize)
	mux.HandleFunc("POST /api/payments/clear-due", s.handleClearDue)

	var handler http.Handler = mux
	if s.rateLimiter != nil {
		handler = s.rateLimiter.middleware(handler)
	}
	if s.logger != nil {
		handler = log.Middleware(s.logger)(handler)
	}
	return handler
}

func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
