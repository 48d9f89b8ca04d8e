package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/infra/metrics"
	red "advertiser-billing/internal/infra/redis"
	"advertiser-billing/internal/usecase"
)

const renewalSweepLockKey = "sched:renewal-sweep"

// RenewalWorker periodically scans for purchases approaching expiry and
// pushes reminders to the external notifier. The per-purchase per-day
// watermark inside the use case deduplicates deliveries; the distributed
// lock keeps replicas from scanning concurrently.
type RenewalWorker struct {
	interval   time.Duration
	windowDays int
	renewals   usecase.RenewalUseCase
	locker     red.Locker // nil disables cross-replica locking
	log        *zerolog.Logger
}

func NewRenewalWorker(interval time.Duration, windowDays int, renewals usecase.RenewalUseCase, locker red.Locker, logger *zerolog.Logger) *RenewalWorker {
	wlog := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{
		interval:   interval,
		windowDays: windowDays,
		renewals:   renewals,
		locker:     locker,
		log:        &wlog,
	}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting renewal worker")
	// run once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RenewalWorker) sweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, renewalSweepLockKey, w.interval)
		if err != nil {
			if !errors.Is(err, domain.ErrLockNotAcquired) {
				w.log.Error().Err(err).Msg("renewal sweep lock error")
			}
			return
		}
		defer func() { _ = w.locker.Unlock(ctx, renewalSweepLockKey, token) }()
	}

	candidates, err := w.renewals.ListRenewals(ctx, w.windowDays, 0)
	if err != nil {
		w.log.Error().Err(err).Msg("renewal scan failed")
		return
	}
	metrics.SetRenewalCandidates(candidates)

	sent, err := w.renewals.SendReminders(ctx, w.windowDays)
	if err != nil {
		w.log.Error().Err(err).Msg("renewal reminders failed")
		return
	}
	if sent > 0 {
		metrics.AddRemindersSent(sent)
		w.log.Info().Int("count", sent).Msg("renewal reminders sent")
	}
}
