package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
)

// BillingRecordRepository is the append-only port for the billing ledger.
// There is deliberately no update or delete.
type BillingRecordRepository interface {
	Insert(ctx context.Context, tx Tx, rec *model.BillingRecord) error
	ListByPurchase(ctx context.Context, tx Tx, purchaseID string) ([]*model.BillingRecord, error)
	// SumByPurchase returns the ledger total and record count for a purchase.
	SumByPurchase(ctx context.Context, tx Tx, purchaseID string) (decimal.Decimal, int, error)
}
