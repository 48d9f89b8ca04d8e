package model

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
)

// BillingRecord is one immutable entry in the billing ledger. Records are
// created only through the ledger's payment path and are never updated or
// deleted. IDs are ULIDs, so lexicographic order matches creation order.
type BillingRecord struct {
	ID         string // ULID
	PurchaseID string // UUID
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// NewBillingRecord validates and constructs a ledger entry.
func NewBillingRecord(id, purchaseID string, amount decimal.Decimal) (*BillingRecord, error) {
	if id == "" || purchaseID == "" || !amount.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	return &BillingRecord{
		ID:         id,
		PurchaseID: purchaseID,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}, nil
}

// InvoiceNumber derives a fixed-length, human-presentable invoice identifier
// from a billing record id. Pure function: the same id always yields the
// same invoice number.
func InvoiceNumber(recordID string) string {
	h := fnv.New64a()
	h.Write([]byte(recordID))
	return fmt.Sprintf("INV-%016X", h.Sum64())
}
