package model

import (
	"time"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
)

type PurchaseState string

const (
	PurchaseStatePending   PurchaseState = "pending"   // created, no qualifying payment yet
	PurchaseStateActive    PurchaseState = "active"    // activated, expiry date set
	PurchaseStateExpired   PurchaseState = "expired"   // expiry date passed
	PurchaseStateCancelled PurchaseState = "cancelled" // explicit administrative cancel
)

// IsTerminal reports whether no further payments or transitions are accepted.
func (s PurchaseState) IsTerminal() bool {
	return s == PurchaseStateExpired || s == PurchaseStateCancelled
}

// PackagePurchase tracks one advertiser's purchase of a package through its
// financial and temporal lifecycle. At all times
// AmountPaid + PendingAmount == price-at-purchase within the configured
// tolerance.
type PackagePurchase struct {
	ID             string // UUID
	AdvertiserID   string // UUID
	PackageID      string // UUID, immutable after creation
	State          PurchaseState
	AmountPaid     decimal.Decimal
	PendingAmount  decimal.Decimal
	PurchaseDate   time.Time
	PaymentDueDate *time.Time // nil when no due date is enforced
	ExpiryDate     *time.Time // nil until activation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPackagePurchase creates a purchase in PENDING with the full package
// price outstanding.
func NewPackagePurchase(id, advertiserID string, pkg *PackageDefinition, dueDate *time.Time) (*PackagePurchase, error) {
	if id == "" || advertiserID == "" || pkg.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PackagePurchase{
		ID:             id,
		AdvertiserID:   advertiserID,
		PackageID:      pkg.ID,
		State:          PurchaseStatePending,
		AmountPaid:     decimal.Zero,
		PendingAmount:  pkg.Price,
		PurchaseDate:   now,
		PaymentDueDate: dueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyPayment validates and applies a payment to the purchase totals.
// It does not decide activation; that is policy owned by the ledger.
func (p *PackagePurchase) ApplyPayment(amount, epsilon decimal.Decimal) error {
	if p.State.IsTerminal() {
		return domain.ErrInvalidStateTransition
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidArgument
	}
	if amount.GreaterThan(p.PendingAmount.Add(epsilon)) {
		return domain.ErrOverpayment
	}
	p.AmountPaid = p.AmountPaid.Add(amount)
	p.PendingAmount = p.PendingAmount.Sub(amount)
	if p.PendingAmount.IsNegative() {
		// overshoot within epsilon; clamp so the invariant holds exactly
		p.AmountPaid = p.AmountPaid.Add(p.PendingAmount)
		p.PendingAmount = decimal.Zero
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Activate transitions PENDING -> ACTIVE and stamps the expiry date as
// purchase date plus the package duration.
func (p *PackagePurchase) Activate(durationMonths int) error {
	if p.State != PurchaseStatePending {
		return domain.ErrInvalidStateTransition
	}
	expiry := p.PurchaseDate.AddDate(0, durationMonths, 0)
	p.State = PurchaseStateActive
	p.ExpiryDate = &expiry
	p.UpdatedAt = time.Now()
	return nil
}

// MarkExpired transitions ACTIVE -> EXPIRED. Calling it on an already
// expired purchase is a no-op so sweeps stay idempotent.
func (p *PackagePurchase) MarkExpired() error {
	switch p.State {
	case PurchaseStateExpired:
		return nil
	case PurchaseStateActive:
		p.State = PurchaseStateExpired
		p.UpdatedAt = time.Now()
		return nil
	default:
		return domain.ErrInvalidStateTransition
	}
}

// MarkCancelled transitions PENDING or ACTIVE -> CANCELLED.
func (p *PackagePurchase) MarkCancelled() error {
	if p.State != PurchaseStatePending && p.State != PurchaseStateActive {
		return domain.ErrInvalidStateTransition
	}
	p.State = PurchaseStateCancelled
	p.UpdatedAt = time.Now()
	return nil
}

// IsOverdue reports whether an active purchase's expiry date has passed.
func (p *PackagePurchase) IsOverdue(now time.Time) bool {
	return p.State == PurchaseStateActive && p.ExpiryDate != nil && p.ExpiryDate.Before(now)
}

// TotalsConsistent checks AmountPaid + PendingAmount == price within epsilon.
func (p *PackagePurchase) TotalsConsistent(price, epsilon decimal.Decimal) bool {
	diff := p.AmountPaid.Add(p.PendingAmount).Sub(price).Abs()
	return diff.LessThanOrEqual(epsilon)
}
