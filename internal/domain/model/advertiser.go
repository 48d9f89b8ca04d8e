package model

import (
	"strings"
	"time"

	"advertiser-billing/internal/domain"
)

// Advertiser is reference data owned by the account directory. This core
// only reads it to resolve purchase ownership and notification targets.
type Advertiser struct {
	ID          string    `json:"id"` // UUID
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAdvertiser validates and constructs an advertiser entry.
func NewAdvertiser(id, companyName, email string) (*Advertiser, error) {
	if id == "" || companyName == "" {
		return nil, domain.ErrInvalidArgument
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	return &Advertiser{
		ID:          id,
		CompanyName: companyName,
		Email:       email,
		CreatedAt:   time.Now(),
	}, nil
}
