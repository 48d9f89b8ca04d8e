package repository

import (
	"context"
	"time"
)

// ReminderLogRepository is the per-purchase per-day watermark that keeps the
// renewal scheduler from resending reminders when it re-runs within a day.
type ReminderLogRepository interface {
	// MarkSent records a reminder for the purchase on the given day. Returns
	// false when a reminder was already recorded for that day.
	MarkSent(ctx context.Context, tx Tx, purchaseID string, day time.Time) (bool, error)
	Exists(ctx context.Context, tx Tx, purchaseID string, day time.Time) (bool, error)
}
