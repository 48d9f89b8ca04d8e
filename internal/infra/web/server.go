package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"advertiser-billing/internal/infra/logging"
	"advertiser-billing/internal/usecase"
)

// Server exposes the ops/admin surface: health, metrics, and a thin JSON
// layer over the billing use cases. All domain logic stays in usecase.
type Server struct {
	ledger   usecase.LedgerUseCase
	catalog  usecase.CatalogUseCase
	renewals usecase.RenewalUseCase
	recon    usecase.ReconciliationUseCase
	apiKey   string
	log      *zerolog.Logger
	srv      *http.Server
}

func NewServer(
	ledger usecase.LedgerUseCase,
	catalog usecase.CatalogUseCase,
	renewals usecase.RenewalUseCase,
	recon usecase.ReconciliationUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	wlog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		ledger:   ledger,
		catalog:  catalog,
		renewals: renewals,
		recon:    recon,
		apiKey:   apiKey,
		log:      &wlog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(traceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/packages", s.handleCreatePackage)
		r.Get("/packages", s.handleListPackages)

		r.Post("/purchases", s.handleCreatePurchase)
		r.Get("/purchases/{id}", s.handleGetPurchase)
		r.Get("/advertisers/{id}/purchases", s.handleListPurchases)
		r.Post("/purchases/{id}/payments", s.handleRecordPayment)
		r.Post("/purchases/{id}/cancel", s.handleCancelPurchase)
		r.Get("/purchases/{id}/billing-records", s.handleBillingHistory)

		r.Get("/renewals", s.handleListRenewals)
		r.Post("/reconciliation/run", s.handleRunReconciliation)
		r.Post("/sweep/expired", s.handleExpireOverdue)
	})
	return r
}

// traceMiddleware carries the chi request id into the logging context so
// use-case log lines correlate with the request.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", port).Msg("admin API listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
