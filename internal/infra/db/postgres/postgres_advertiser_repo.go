package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

var _ repository.AdvertiserRepository = (*advertiserRepo)(nil)

type advertiserRepo struct{ pool *pgxpool.Pool }

func NewAdvertiserRepo(pool *pgxpool.Pool) *advertiserRepo {
	return &advertiserRepo{pool: pool}
}

func (r *advertiserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Advertiser, error) {
	const q = `SELECT id, company_name, email, created_at FROM advertisers WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	a := &model.Advertiser{}
	if err := row.Scan(&a.ID, &a.CompanyName, &a.Email, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

func (r *advertiserRepo) Save(ctx context.Context, tx repository.Tx, a *model.Advertiser) error {
	const q = `
INSERT INTO advertisers (id, company_name, email, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET company_name=$2, email=$3;`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.CompanyName, a.Email, a.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
