package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

var _ repository.PackageDefinitionRepository = (*packageRepo)(nil)

type packageRepo struct{ pool *pgxpool.Pool }

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

const packageColumns = `id, name, duration_months, price::text, is_active, created_at, updated_at`

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, pkg *model.PackageDefinition) error {
	const q = `
INSERT INTO package_definitions (id, name, duration_months, price, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, duration_months=$3, price=$4, is_active=$5, updated_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q,
		pkg.ID, pkg.Name, pkg.DurationMonths, pkg.Price.String(), pkg.IsActive, pkg.CreatedAt, pkg.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackageDefinition, error) {
	const q = `SELECT ` + packageColumns + ` FROM package_definitions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func (r *packageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PackageDefinition, error) {
	const q = `SELECT ` + packageColumns + ` FROM package_definitions WHERE is_active ORDER BY name ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PackageDefinition
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}

func (r *packageRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	const q = `UPDATE package_definitions SET is_active=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, active)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *packageRepo) UpdatePrice(ctx context.Context, tx repository.Tx, id string, price decimal.Decimal) error {
	const q = `UPDATE package_definitions SET price=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, price.String())
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPackage(row pgx.Row) (*model.PackageDefinition, error) {
	pkg := &model.PackageDefinition{}
	var price string
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.DurationMonths, &price, &pkg.IsActive, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if pkg.Price, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return pkg, nil
}
