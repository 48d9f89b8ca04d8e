package model

import (
	"time"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
)

// PackageDefinition is a purchasable subscription package with a fixed
// duration and price. Once referenced by a purchase only IsActive and the
// price offered to new purchases may change; existing purchases keep the
// price they were created with.
type PackageDefinition struct {
	ID             string          `json:"id"` // UUID
	Name           string          `json:"name"`
	DurationMonths int             `json:"duration_months"`
	Price          decimal.Decimal `json:"price"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *PackageDefinition) IsZero() bool { return p == nil || p.ID == "" }

// NewPackageDefinition validates and constructs a package definition.
func NewPackageDefinition(id, name string, durationMonths int, price decimal.Decimal) (*PackageDefinition, error) {
	if id == "" || name == "" || durationMonths <= 0 || price.IsNegative() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PackageDefinition{
		ID:             id,
		Name:           name,
		DurationMonths: durationMonths,
		Price:          price,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
