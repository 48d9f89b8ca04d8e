package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, advertiser_id, package_id, state, amount_paid::text, pending_amount::text, purchase_date, payment_due_date, expiry_date, created_at, updated_at`

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.PackagePurchase) error {
	const q = `
INSERT INTO package_purchases (
  id, advertiser_id, package_id, state, amount_paid, pending_amount, purchase_date, payment_due_date, expiry_date, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  state=$4, amount_paid=$5, pending_amount=$6, payment_due_date=$8, expiry_date=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.AdvertiserID, p.PackageID, p.State,
		p.AmountPaid.String(), p.PendingAmount.String(),
		p.PurchaseDate, p.PaymentDueDate, p.ExpiryDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackagePurchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM package_purchases WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		// lock the row so concurrent payments serialize
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) ListByAdvertiser(ctx context.Context, tx repository.Tx, advertiserID string) ([]*model.PackagePurchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM package_purchases WHERE advertiser_id=$1 ORDER BY purchase_date DESC;`
	return r.list(ctx, tx, q, advertiserID)
}

func (r *purchaseRepo) ListActiveExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PackagePurchase, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + purchaseColumns + ` FROM package_purchases WHERE state='active' AND expiry_date < $1 ORDER BY expiry_date ASC LIMIT $2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE SKIP LOCKED"
	}
	return r.list(ctx, tx, q+";", cutoff, limit)
}

func (r *purchaseRepo) ListActiveExpiringWithin(ctx context.Context, tx repository.Tx, from time.Time, window time.Duration) ([]*model.PackagePurchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM package_purchases WHERE state='active' AND expiry_date >= $1 AND expiry_date <= $2 ORDER BY expiry_date ASC;`
	return r.list(ctx, tx, q, from, from.Add(window))
}

func (r *purchaseRepo) ListWithPayments(ctx context.Context, tx repository.Tx) ([]*model.PackagePurchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM package_purchases WHERE amount_paid > 0 ORDER BY id ASC;`
	return r.list(ctx, tx, q)
}

func (r *purchaseRepo) CountByState(ctx context.Context, tx repository.Tx) (map[model.PurchaseState]int, error) {
	const q = `SELECT state, COUNT(*) FROM package_purchases GROUP BY state;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[model.PurchaseState]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.PurchaseState(state)] = count
	}
	return out, rows.Err()
}

func (r *purchaseRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.PackagePurchase, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PackagePurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPurchase(row pgx.Row) (*model.PackagePurchase, error) {
	p := &model.PackagePurchase{}
	var state, amountPaid, pendingAmount string
	if err := row.Scan(&p.ID, &p.AdvertiserID, &p.PackageID, &state, &amountPaid, &pendingAmount,
		&p.PurchaseDate, &p.PaymentDueDate, &p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.State = model.PurchaseState(state)

	var err error
	if p.AmountPaid, err = decimal.NewFromString(amountPaid); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if p.PendingAmount, err = decimal.NewFromString(pendingAmount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
