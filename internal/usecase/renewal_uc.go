package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/adapter"
	"advertiser-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ RenewalUseCase = (*renewalUC)(nil)

// RenewalUseCase surfaces active purchases approaching expiry. Overdue
// purchases are swept into EXPIRED before listing, so the scheduler never
// offers an expired purchase for renewal.
type RenewalUseCase interface {
	// ListRenewals returns candidates expiring in [now, now+windowDays],
	// sorted by days remaining (ties broken by purchase id). A
	// non-positive urgentThresholdDays falls back to the configured
	// default.
	ListRenewals(ctx context.Context, windowDays, urgentThresholdDays int) ([]*model.RenewalCandidate, error)
	// SendReminders notifies candidates through the external notifier,
	// deduplicated with a per-purchase per-day watermark. Returns how many
	// reminders went out.
	SendReminders(ctx context.Context, windowDays int) (int, error)
}

type RenewalOptions struct {
	// UrgentThresholdDays: candidates with this many days or fewer left are
	// "urgent"; the rest of the window is "upcoming".
	UrgentThresholdDays int
}

type renewalUC struct {
	ledger      LedgerUseCase
	purchases   repository.PurchaseRepository
	advertisers repository.AdvertiserRepository
	packages    repository.PackageDefinitionRepository
	reminders   repository.ReminderLogRepository
	notifier    adapter.RenewalNotifier
	opts        RenewalOptions
	log         *zerolog.Logger
	now         func() time.Time
}

func NewRenewalUseCase(
	ledger LedgerUseCase,
	purchases repository.PurchaseRepository,
	advertisers repository.AdvertiserRepository,
	packages repository.PackageDefinitionRepository,
	reminders repository.ReminderLogRepository,
	notifier adapter.RenewalNotifier,
	opts RenewalOptions,
	logger *zerolog.Logger,
) *renewalUC {
	if opts.UrgentThresholdDays <= 0 {
		opts.UrgentThresholdDays = 7
	}
	l := logger.With().Str("component", "RenewalScheduler").Logger()
	return &renewalUC{
		ledger:      ledger,
		purchases:   purchases,
		advertisers: advertisers,
		packages:    packages,
		reminders:   reminders,
		notifier:    notifier,
		opts:        opts,
		log:         &l,
		now:         time.Now,
	}
}

func (uc *renewalUC) ListRenewals(ctx context.Context, windowDays, urgentThresholdDays int) ([]*model.RenewalCandidate, error) {
	if urgentThresholdDays <= 0 {
		urgentThresholdDays = uc.opts.UrgentThresholdDays
	}

	// Overdue ACTIVE purchases become EXPIRED first; they are renewal
	// history, not candidates.
	if _, err := uc.ledger.ExpireOverdue(ctx); err != nil {
		return nil, err
	}

	now := uc.now()
	window := time.Duration(windowDays) * 24 * time.Hour
	expiring, err := uc.purchases.ListActiveExpiringWithin(ctx, repository.NoTX, now, window)
	if err != nil {
		return nil, err
	}

	pkgNames := make(map[string]string)
	candidates := make([]*model.RenewalCandidate, 0, len(expiring))
	for _, p := range expiring {
		if p.ExpiryDate == nil {
			continue
		}
		days := daysRemaining(now, *p.ExpiryDate)
		if days < 0 || days > windowDays {
			continue
		}

		adv, err := uc.advertisers.FindByID(ctx, repository.NoTX, p.AdvertiserID)
		if err != nil {
			uc.log.Error().Err(err).Str("purchase_id", p.ID).Str("advertiser_id", p.AdvertiserID).Msg("skipping candidate without advertiser")
			continue
		}
		name, ok := pkgNames[p.PackageID]
		if !ok {
			pkg, err := uc.packages.FindByID(ctx, repository.NoTX, p.PackageID)
			if err != nil {
				uc.log.Error().Err(err).Str("purchase_id", p.ID).Str("package_id", p.PackageID).Msg("skipping candidate without package")
				continue
			}
			name = pkg.Name
			pkgNames[p.PackageID] = name
		}

		urgency := model.RenewalUpcoming
		if days <= urgentThresholdDays {
			urgency = model.RenewalUrgent
		}
		candidates = append(candidates, &model.RenewalCandidate{
			PurchaseID:    p.ID,
			Advertiser:    *adv,
			PackageName:   name,
			ExpiryDate:    *p.ExpiryDate,
			DaysRemaining: days,
			Urgency:       urgency,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DaysRemaining != candidates[j].DaysRemaining {
			return candidates[i].DaysRemaining < candidates[j].DaysRemaining
		}
		return candidates[i].PurchaseID < candidates[j].PurchaseID
	})
	return candidates, nil
}

func (uc *renewalUC) SendReminders(ctx context.Context, windowDays int) (int, error) {
	candidates, err := uc.ListRenewals(ctx, windowDays, 0)
	if err != nil {
		return 0, err
	}

	day := uc.now().UTC().Truncate(24 * time.Hour)
	sent := 0
	for _, c := range candidates {
		already, err := uc.reminders.Exists(ctx, repository.NoTX, c.PurchaseID, day)
		if err != nil {
			uc.log.Error().Err(err).Str("purchase_id", c.PurchaseID).Msg("reminder watermark check failed")
			continue
		}
		if already {
			continue
		}
		if err := uc.notifier.SendRenewalReminder(ctx, c); err != nil {
			// no watermark on failure so the next run retries
			uc.log.Error().Err(err).Str("purchase_id", c.PurchaseID).Msg("reminder delivery failed")
			continue
		}
		if _, err := uc.reminders.MarkSent(ctx, repository.NoTX, c.PurchaseID, day); err != nil {
			uc.log.Error().Err(err).Str("purchase_id", c.PurchaseID).Msg("reminder watermark write failed")
		}
		sent++
	}
	return sent, nil
}

// daysRemaining is ceil(expiry - now) in whole days.
func daysRemaining(now, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
