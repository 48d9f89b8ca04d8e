package model

import "github.com/shopspring/decimal"

type DiscrepancyKind string

const (
	// DiscrepancyOrphan: purchase shows paid money but no billing records exist.
	DiscrepancyOrphan DiscrepancyKind = "ORPHAN"
	// DiscrepancyAmountMismatch: billing-record sum differs from the purchase
	// total beyond tolerance.
	DiscrepancyAmountMismatch DiscrepancyKind = "AMOUNT_MISMATCH"
	// DiscrepancyClean: totals match. Suppressed from reports by default.
	DiscrepancyClean DiscrepancyKind = "CLEAN"
)

// Discrepancy is a reconciliation finding. It is collected, never thrown:
// one bad record must not halt the audit of the rest, and correction of
// financial data is left to human review.
type Discrepancy struct {
	PurchaseID string          `json:"purchase_id"`
	Kind       DiscrepancyKind `json:"kind"`
	Expected   decimal.Decimal `json:"expected"` // purchase.AmountPaid
	Actual     decimal.Decimal `json:"actual"`   // sum of billing records
}
