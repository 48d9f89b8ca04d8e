package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/ports/repository"
)

var _ repository.ReminderLogRepository = (*reminderLogRepo)(nil)

type reminderLogRepo struct{ pool *pgxpool.Pool }

func NewReminderLogRepo(pool *pgxpool.Pool) *reminderLogRepo {
	return &reminderLogRepo{pool: pool}
}

func (r *reminderLogRepo) MarkSent(ctx context.Context, tx repository.Tx, purchaseID string, day time.Time) (bool, error) {
	// the UNIQUE constraint on (purchase_id, sent_on) is the watermark;
	// ON CONFLICT DO NOTHING makes re-runs a no-op
	const q = `
INSERT INTO renewal_reminders (id, purchase_id, sent_on)
VALUES ($1, $2, $3)
ON CONFLICT (purchase_id, sent_on) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), purchaseID, day.Format("2006-01-02"))
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *reminderLogRepo) Exists(ctx context.Context, tx repository.Tx, purchaseID string, day time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM renewal_reminders WHERE purchase_id=$1 AND sent_on=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, purchaseID, day.Format("2006-01-02"))
	if err != nil {
		return false, err
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
