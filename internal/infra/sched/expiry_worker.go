package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"advertiser-billing/internal/domain/ports/repository"
	"advertiser-billing/internal/infra/metrics"
	"advertiser-billing/internal/usecase"
)

// ExpiryWorker periodically sweeps overdue active purchases into EXPIRED and
// refreshes the per-state purchase gauge. The sweep is idempotent, so
// overlapping or repeated runs are harmless.
type ExpiryWorker struct {
	interval  time.Duration
	ledger    usecase.LedgerUseCase
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, ledger usecase.LedgerUseCase, purchases repository.PurchaseRepository, logger *zerolog.Logger) *ExpiryWorker {
	wlog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:  interval,
		ledger:    ledger,
		purchases: purchases,
		log:       &wlog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.ledger.ExpireOverdue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
			if n > 0 {
				metrics.IncPurchasesExpired(n)
				w.log.Info().Int("count", n).Msg("overdue purchases expired")
			}
			if counts, err := w.purchases.CountByState(ctx, repository.NoTX); err == nil {
				metrics.SetPurchasesTotal(counts)
			}
		}
	}
}
