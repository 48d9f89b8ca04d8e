package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
	"advertiser-billing/internal/infra/logging"
)

// ActivationPolicy decides when a purchase transitions PENDING -> ACTIVE.
// The threshold is explicit configuration; it is never inferred.
type ActivationPolicy string

const (
	// ActivateOnFirstPayment activates on the first accepted payment of any
	// size.
	ActivateOnFirstPayment ActivationPolicy = "first_payment"
	// ActivateOnFullPayment activates only once the pending amount is
	// cleared (within tolerance).
	ActivateOnFullPayment ActivationPolicy = "full_payment"
)

// LedgerOptions carries the billing rules the ledger enforces.
type LedgerOptions struct {
	// Epsilon is the monetary rounding tolerance (typically one minor unit).
	Epsilon decimal.Decimal
	// Policy picks the PENDING -> ACTIVE threshold.
	Policy ActivationPolicy
	// PaymentDueDays sets PaymentDueDate on new purchases; 0 leaves it unset.
	PaymentDueDays int
}

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase owns package purchases and their state machine. Every
// payment flows through RecordPayment, which is the only producer of
// billing records.
type LedgerUseCase interface {
	CreatePurchase(ctx context.Context, advertiserID, packageID string) (*model.PackagePurchase, error)
	// RecordPayment atomically applies a payment to the purchase totals and
	// appends exactly one billing record. Either both are visible or
	// neither.
	RecordPayment(ctx context.Context, purchaseID string, amount decimal.Decimal) (*model.PackagePurchase, *model.BillingRecord, error)
	Cancel(ctx context.Context, purchaseID string) (*model.PackagePurchase, error)
	// ExpireOverdue sweeps ACTIVE purchases whose expiry date has passed
	// into EXPIRED and returns how many were transitioned. Idempotent.
	ExpireOverdue(ctx context.Context) (int, error)
	GetPurchase(ctx context.Context, purchaseID string) (*model.PackagePurchase, error)
	ListPurchases(ctx context.Context, advertiserID string) ([]*model.PackagePurchase, error)
	// BillingHistory returns the purchase's billing records in creation order.
	BillingHistory(ctx context.Context, purchaseID string) ([]*model.BillingRecord, error)
}

type ledgerUC struct {
	advertisers repository.AdvertiserRepository
	packages    repository.PackageDefinitionRepository
	purchases   repository.PurchaseRepository
	billing     BillingRecorder
	tm          repository.TransactionManager // nil for in-memory backends
	opts        LedgerOptions
	log         *zerolog.Logger

	// Per-purchase mutexes serialize RecordPayment so two concurrent
	// payments never apply a stale pending amount. DB-backed deployments
	// additionally hold a row lock inside the transaction.
	locks sync.Map // purchaseID -> *sync.Mutex
}

func NewLedgerUseCase(
	advertisers repository.AdvertiserRepository,
	packages repository.PackageDefinitionRepository,
	purchases repository.PurchaseRepository,
	billing BillingRecorder,
	tm repository.TransactionManager,
	opts LedgerOptions,
	logger *zerolog.Logger,
) *ledgerUC {
	if opts.Policy == "" {
		opts.Policy = ActivateOnFirstPayment
	}
	l := logger.With().Str("component", "SubscriptionLedger").Logger()
	return &ledgerUC{
		advertisers: advertisers,
		packages:    packages,
		purchases:   purchases,
		billing:     billing,
		tm:          tm,
		opts:        opts,
		log:         &l,
	}
}

func (uc *ledgerUC) lockFor(purchaseID string) *sync.Mutex {
	v, _ := uc.locks.LoadOrStore(purchaseID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// withTx runs fn inside a read-committed transaction when a transaction
// manager is configured, otherwise directly against the repositories.
func (uc *ledgerUC) withTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if uc.tm == nil {
		return fn(ctx, repository.NoTX)
	}
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, fn)
}

func (uc *ledgerUC) CreatePurchase(ctx context.Context, advertiserID, packageID string) (*model.PackagePurchase, error) {
	if _, err := uc.advertisers.FindByID(ctx, repository.NoTX, advertiserID); err != nil {
		return nil, err
	}
	pkg, err := uc.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, domain.ErrInactivePackage
	}

	var due *time.Time
	if uc.opts.PaymentDueDays > 0 {
		d := time.Now().AddDate(0, 0, uc.opts.PaymentDueDays)
		due = &d
	}
	purchase, err := model.NewPackagePurchase(uuid.NewString(), advertiserID, pkg, due)
	if err != nil {
		return nil, err
	}
	if err := uc.purchases.Save(ctx, repository.NoTX, purchase); err != nil {
		return nil, err
	}
	logging.With(ctx, uc.log).Info().
		Str("purchase_id", purchase.ID).
		Str("advertiser_id", advertiserID).
		Str("package_id", packageID).
		Str("price", pkg.Price.String()).
		Msg("purchase created")
	return purchase, nil
}

func (uc *ledgerUC) RecordPayment(ctx context.Context, purchaseID string, amount decimal.Decimal) (*model.PackagePurchase, *model.BillingRecord, error) {
	mu := uc.lockFor(purchaseID)
	mu.Lock()
	defer mu.Unlock()

	var (
		purchase *model.PackagePurchase
		record   *model.BillingRecord
	)
	err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.purchases.FindByID(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		pkg, err := uc.packages.FindByID(ctx, tx, p.PackageID)
		if err != nil {
			return err
		}
		if err := p.ApplyPayment(amount, uc.opts.Epsilon); err != nil {
			return err
		}
		if p.State == model.PurchaseStatePending && uc.shouldActivate(p) {
			if err := p.Activate(pkg.DurationMonths); err != nil {
				return err
			}
		}
		rec, err := uc.billing.Append(ctx, tx, p.ID, amount)
		if err != nil {
			return err
		}
		if err := uc.purchases.Save(ctx, tx, p); err != nil {
			return err
		}
		purchase, record = p, rec
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logging.With(ctx, uc.log).Info().
		Str("purchase_id", purchase.ID).
		Str("billing_record_id", record.ID).
		Str("invoice", uc.billing.InvoiceNumber(record.ID)).
		Str("amount", amount.String()).
		Str("pending", purchase.PendingAmount.String()).
		Str("state", string(purchase.State)).
		Msg("payment recorded")
	return purchase, record, nil
}

func (uc *ledgerUC) shouldActivate(p *model.PackagePurchase) bool {
	switch uc.opts.Policy {
	case ActivateOnFullPayment:
		return p.PendingAmount.LessThanOrEqual(uc.opts.Epsilon)
	default:
		return p.AmountPaid.IsPositive()
	}
}

func (uc *ledgerUC) Cancel(ctx context.Context, purchaseID string) (*model.PackagePurchase, error) {
	mu := uc.lockFor(purchaseID)
	mu.Lock()
	defer mu.Unlock()

	var purchase *model.PackagePurchase
	err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.purchases.FindByID(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if err := p.MarkCancelled(); err != nil {
			return err
		}
		if err := uc.purchases.Save(ctx, tx, p); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("purchase_id", purchaseID).Msg("purchase cancelled")
	return purchase, nil
}

func (uc *ledgerUC) ExpireOverdue(ctx context.Context) (int, error) {
	count := 0
	err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		due, err := uc.purchases.ListActiveExpiredBefore(ctx, tx, time.Now(), 500)
		if err != nil {
			return err
		}
		for _, p := range due {
			if err := p.MarkExpired(); err != nil {
				// already expired under a concurrent sweep; skip
				continue
			}
			if err := uc.purchases.Save(ctx, tx, p); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		uc.log.Info().Int("count", count).Msg("overdue purchases expired")
	}
	return count, nil
}

func (uc *ledgerUC) GetPurchase(ctx context.Context, purchaseID string) (*model.PackagePurchase, error) {
	return uc.purchases.FindByID(ctx, repository.NoTX, purchaseID)
}

func (uc *ledgerUC) ListPurchases(ctx context.Context, advertiserID string) ([]*model.PackagePurchase, error) {
	if _, err := uc.advertisers.FindByID(ctx, repository.NoTX, advertiserID); err != nil {
		return nil, err
	}
	return uc.purchases.ListByAdvertiser(ctx, repository.NoTX, advertiserID)
}

func (uc *ledgerUC) BillingHistory(ctx context.Context, purchaseID string) ([]*model.BillingRecord, error) {
	if _, err := uc.purchases.FindByID(ctx, repository.NoTX, purchaseID); err != nil {
		return nil, err
	}
	return uc.billing.History(ctx, repository.NoTX, purchaseID)
}
