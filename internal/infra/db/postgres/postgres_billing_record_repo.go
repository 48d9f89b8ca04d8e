package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

var _ repository.BillingRecordRepository = (*billingRecordRepo)(nil)

// billingRecordRepo is append-only by construction: there is no UPDATE or
// DELETE statement in this file, and the table carries no such grants.
type billingRecordRepo struct{ pool *pgxpool.Pool }

func NewBillingRecordRepo(pool *pgxpool.Pool) *billingRecordRepo {
	return &billingRecordRepo{pool: pool}
}

func (r *billingRecordRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.BillingRecord) error {
	const q = `
INSERT INTO billing_records (id, purchase_id, amount, created_at)
VALUES ($1, $2, $3, $4);`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.PurchaseID, rec.Amount.String(), rec.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// duplicate record id; the recorder never reissues ids, so this
			// indicates a replayed insert
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *billingRecordRepo) ListByPurchase(ctx context.Context, tx repository.Tx, purchaseID string) ([]*model.BillingRecord, error) {
	// ULID ids sort in creation order
	const q = `SELECT id, purchase_id, amount::text, created_at FROM billing_records WHERE purchase_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, purchaseID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.BillingRecord
	for rows.Next() {
		rec := &model.BillingRecord{}
		var amount string
		if err := rows.Scan(&rec.ID, &rec.PurchaseID, &amount, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *billingRecordRepo) SumByPurchase(ctx context.Context, tx repository.Tx, purchaseID string) (decimal.Decimal, int, error) {
	const q = `SELECT COALESCE(SUM(amount),0)::text, COUNT(*) FROM billing_records WHERE purchase_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, purchaseID)
	if err != nil {
		return decimal.Zero, 0, err
	}

	var sum string
	var count int
	if err := row.Scan(&sum, &count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, 0, nil
		}
		return decimal.Zero, 0, domain.ErrReadDatabaseRow
	}
	total, err := decimal.NewFromString(sum)
	if err != nil {
		return decimal.Zero, 0, domain.ErrReadDatabaseRow
	}
	return total, count, nil
}
