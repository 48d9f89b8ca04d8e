package repository

import (
	"context"

	"advertiser-billing/internal/domain/model"
)

// AdvertiserRepository is the read-side port for the advertiser directory.
// This core never mutates advertisers; Save exists for seeding only.
type AdvertiserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Advertiser, error)
	Save(ctx context.Context, tx Tx, a *model.Advertiser) error
}
