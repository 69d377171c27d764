// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"famledger/internal/identity"
	applog "famledger/internal/log"
	"famledger/internal/services"
)

type Server struct {
	srv      *http.Server
	svc      *services.LedgerService
	identity identity.Provider
	logger   *applog.Logger
	limiter  *rateLimiter
}

func NewServer(addr string, svc *services.LedgerService, provider identity.Provider, logger *applog.Logger) *Server {
	s := &Server{
		svc:      svc,
		identity: provider,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		limiter:  newRateLimiter(120, time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/accounts/banks", s.handleListBanks)
	mux.HandleFunc("POST /api/accounts/banks", s.handleCreateBank)
	mux.HandleFunc("GET /api/accounts/cards", s.handleListCards)
	mux.HandleFunc("POST /api/accounts/cards", s.handleCreateCard)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/{id}/reset", s.handleResetCard)

	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("POST /api/members", s.handleCreateMember)
	mux.HandleFunc("PATCH /api/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/summary/income", s.handleIncome)
	mux.HandleFunc("GET /api/summary/expenses", s.handleExpenses)
	mux.HandleFunc("GET /api/summary/categories", s.handleExpensesByCategory)
	mux.HandleFunc("GET /api/summary/shares", s.handleCategoryShares)
	mux.HandleFunc("GET /api/summary/savings-rate", s.handleSavingsRate)
	mux.HandleFunc("GET /api/summary/balance", s.handleTotalBalance)

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = securityHeaders(handler)
	handler = applog.Middleware(logger)(handler)

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.srv.Shutdown(ctx)
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractClientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("rate limit exceeded", applog.FieldClientIP, ip)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// workspace resolves the request's workspace, failing with 503 while
// identity is still unresolved.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, err := s.identity.Await(r.Context())
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return session.WorkspaceID, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	if _, err := s.identity.Await(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
