package usecase

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconciliationUseCase = (*reconciliationUC)(nil)

// ReconciliationUseCase audits recorded purchase totals against the billing
// ledger. It is strictly read-only: discrepancies are reported for external
// remediation, automatic correction of financial records is disallowed.
type ReconciliationUseCase interface {
	// Run scans every purchase with paid money and reports discrepancies.
	// Running twice on unchanged data yields an identical report.
	Run(ctx context.Context) ([]model.Discrepancy, error)
}

type ReconciliationOptions struct {
	Epsilon decimal.Decimal
	// IncludeClean also reports matching purchases; off by default, only
	// discrepancies are surfaced.
	IncludeClean bool
}

type reconciliationUC struct {
	purchases repository.PurchaseRepository
	records   repository.BillingRecordRepository
	opts      ReconciliationOptions
	log       *zerolog.Logger
}

func NewReconciliationUseCase(
	purchases repository.PurchaseRepository,
	records repository.BillingRecordRepository,
	opts ReconciliationOptions,
	logger *zerolog.Logger,
) *reconciliationUC {
	l := logger.With().Str("component", "ReconciliationEngine").Logger()
	return &reconciliationUC{purchases: purchases, records: records, opts: opts, log: &l}
}

func (uc *reconciliationUC) Run(ctx context.Context) ([]model.Discrepancy, error) {
	paid, err := uc.purchases.ListWithPayments(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	findings := make([]model.Discrepancy, 0)
	for _, p := range paid {
		sum, count, err := uc.records.SumByPurchase(ctx, repository.NoTX, p.ID)
		if err != nil {
			// a single unreadable purchase must not halt the audit
			uc.log.Error().Err(err).Str("purchase_id", p.ID).Msg("skipping purchase in audit")
			continue
		}
		kind := classify(p.AmountPaid, sum, count, uc.opts.Epsilon)
		if kind == model.DiscrepancyClean && !uc.opts.IncludeClean {
			continue
		}
		findings = append(findings, model.Discrepancy{
			PurchaseID: p.ID,
			Kind:       kind,
			Expected:   p.AmountPaid,
			Actual:     sum,
		})
	}

	// stable report order regardless of scan order
	sort.Slice(findings, func(i, j int) bool { return findings[i].PurchaseID < findings[j].PurchaseID })
	return findings, nil
}

func classify(amountPaid, ledgerSum decimal.Decimal, recordCount int, epsilon decimal.Decimal) model.DiscrepancyKind {
	if recordCount == 0 {
		return model.DiscrepancyOrphan
	}
	if ledgerSum.Sub(amountPaid).Abs().GreaterThan(epsilon) {
		return model.DiscrepancyAmountMismatch
	}
	return model.DiscrepancyClean
}
