package repository

import (
	"context"
	"time"

	"advertiser-billing/internal/domain/model"
)

// PurchaseRepository is the port for package purchases, owned exclusively by
// the subscription ledger. Other components read through it only.
type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PackagePurchase) error
	// FindByID returns the purchase. When tx carries a live transaction the
	// row is locked (SELECT ... FOR UPDATE) so concurrent payments serialize.
	FindByID(ctx context.Context, tx Tx, id string) (*model.PackagePurchase, error)
	ListByAdvertiser(ctx context.Context, tx Tx, advertiserID string) ([]*model.PackagePurchase, error)
	// ListActiveExpiredBefore returns ACTIVE purchases whose expiry date lies
	// strictly before the cutoff. Used by the expiry sweep.
	ListActiveExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.PackagePurchase, error)
	// ListActiveExpiringWithin returns ACTIVE purchases expiring in
	// [from, from+window], ordered by expiry date.
	ListActiveExpiringWithin(ctx context.Context, tx Tx, from time.Time, window time.Duration) ([]*model.PackagePurchase, error)
	// ListWithPayments returns purchases with AmountPaid > 0, ordered by id,
	// for the reconciliation scan.
	ListWithPayments(ctx context.Context, tx Tx) ([]*model.PackagePurchase, error)
	CountByState(ctx context.Context, tx Tx) (map[model.PurchaseState]int, error)
}
