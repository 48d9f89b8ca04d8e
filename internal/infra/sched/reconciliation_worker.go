package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"advertiser-billing/internal/infra/metrics"
	"advertiser-billing/internal/usecase"
)

// ReconciliationWorker runs the ledger audit on a schedule. Findings are
// logged and exported; nothing is corrected automatically.
type ReconciliationWorker struct {
	interval time.Duration
	recon    usecase.ReconciliationUseCase
	log      *zerolog.Logger
}

func NewReconciliationWorker(interval time.Duration, recon usecase.ReconciliationUseCase, logger *zerolog.Logger) *ReconciliationWorker {
	wlog := logger.With().Str("component", "ReconciliationWorker").Logger()
	return &ReconciliationWorker{
		interval: interval,
		recon:    recon,
		log:      &wlog,
	}
}

func (w *ReconciliationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting reconciliation worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reconciliation worker")
			return ctx.Err()
		case <-ticker.C:
			w.audit(ctx)
		}
	}
}

func (w *ReconciliationWorker) audit(ctx context.Context) {
	findings, err := w.recon.Run(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciliation run failed")
		return
	}
	metrics.ObserveReconciliation(findings)
	for _, f := range findings {
		w.log.Warn().
			Str("purchase_id", f.PurchaseID).
			Str("kind", string(f.Kind)).
			Str("expected", f.Expected.String()).
			Str("actual", f.Actual.String()).
			Msg("billing discrepancy")
	}
	if len(findings) == 0 {
		w.log.Info().Msg("reconciliation clean")
	}
}
