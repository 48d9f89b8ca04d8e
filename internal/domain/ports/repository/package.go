package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
)

// PackageDefinitionRepository is the port for the package catalog.
type PackageDefinitionRepository interface {
	Save(ctx context.Context, tx Tx, pkg *model.PackageDefinition) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PackageDefinition, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.PackageDefinition, error)
	// SetActive flips availability for new purchases; existing purchases are
	// unaffected.
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
	// UpdatePrice changes the price offered to new purchases only.
	UpdatePrice(ctx context.Context, tx Tx, id string, price decimal.Decimal) error
}
