package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// CatalogUseCase manages package definitions. Read-mostly; price and
// availability changes affect new purchases only.
type CatalogUseCase interface {
	Create(ctx context.Context, name string, durationMonths int, price decimal.Decimal) (*model.PackageDefinition, error)
	Get(ctx context.Context, id string) (*model.PackageDefinition, error)
	ListActive(ctx context.Context) ([]*model.PackageDefinition, error)
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error
}

type catalogUC struct {
	packages repository.PackageDefinitionRepository
}

func NewCatalogUseCase(packages repository.PackageDefinitionRepository) *catalogUC {
	return &catalogUC{packages: packages}
}

func (uc *catalogUC) Create(ctx context.Context, name string, durationMonths int, price decimal.Decimal) (*model.PackageDefinition, error) {
	pkg, err := model.NewPackageDefinition(uuid.NewString(), name, durationMonths, price)
	if err != nil {
		return nil, err
	}
	if err := uc.packages.Save(ctx, repository.NoTX, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (uc *catalogUC) Get(ctx context.Context, id string) (*model.PackageDefinition, error) {
	return uc.packages.FindByID(ctx, repository.NoTX, id)
}

func (uc *catalogUC) ListActive(ctx context.Context) ([]*model.PackageDefinition, error) {
	return uc.packages.ListActive(ctx, repository.NoTX)
}

func (uc *catalogUC) SetActive(ctx context.Context, id string, active bool) error {
	return uc.packages.SetActive(ctx, repository.NoTX, id, active)
}

func (uc *catalogUC) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error {
	return uc.packages.UpdatePrice(ctx, repository.NoTX, id, price)
}
