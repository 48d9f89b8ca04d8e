package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ BillingRecorder = (*billingRecorder)(nil)

// BillingRecorder appends immutable entries to the billing ledger. It is
// invoked exclusively by the subscription ledger's payment path; nothing
// else creates billing records.
type BillingRecorder interface {
	// Append creates exactly one ledger entry for the given amount inside
	// the caller's transaction.
	Append(ctx context.Context, tx repository.Tx, purchaseID string, amount decimal.Decimal) (*model.BillingRecord, error)
	// History returns the purchase's ledger entries in creation order.
	History(ctx context.Context, tx repository.Tx, purchaseID string) ([]*model.BillingRecord, error)
	// InvoiceNumber derives the presentable invoice id for a record. Pure.
	InvoiceNumber(recordID string) string
}

type billingRecorder struct {
	records repository.BillingRecordRepository

	// ULID entropy must be guarded: ulid.Monotonic is not safe for
	// concurrent use, and monotonic ids are what keeps ledger order stable.
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewBillingRecorder(records repository.BillingRecordRepository) *billingRecorder {
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &billingRecorder{
		records: records,
		entropy: ulid.Monotonic(seed, 0),
	}
}

func (b *billingRecorder) nextID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

func (b *billingRecorder) Append(ctx context.Context, tx repository.Tx, purchaseID string, amount decimal.Decimal) (*model.BillingRecord, error) {
	rec, err := model.NewBillingRecord(b.nextID(), purchaseID, amount)
	if err != nil {
		return nil, err
	}
	if err := b.records.Insert(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *billingRecorder) History(ctx context.Context, tx repository.Tx, purchaseID string) ([]*model.BillingRecord, error) {
	return b.records.ListByPurchase(ctx, tx, purchaseID)
}

func (b *billingRecorder) InvoiceNumber(recordID string) string {
	return model.InvoiceNumber(recordID)
}
