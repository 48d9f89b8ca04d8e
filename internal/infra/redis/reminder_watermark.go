package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"advertiser-billing/internal/domain/ports/repository"
)

// Ensure compile-time conformance
var _ repository.ReminderLogRepository = (*ReminderWatermark)(nil)

// ReminderWatermark implements the per-purchase per-day reminder dedup on
// redis. SETNX with a TTL keeps the keyspace self-cleaning; deployments that
// need a durable audit trail use the postgres implementation instead.
type ReminderWatermark struct {
	cli RedisClient
	ttl time.Duration
}

func NewReminderWatermark(cli RedisClient, ttl time.Duration) *ReminderWatermark {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &ReminderWatermark{cli: cli, ttl: ttl}
}

func key(purchaseID string, day time.Time) string {
	return fmt.Sprintf("renewal:reminder:%s:%s", purchaseID, day.Format("2006-01-02"))
}

func (w *ReminderWatermark) MarkSent(ctx context.Context, _ repository.Tx, purchaseID string, day time.Time) (bool, error) {
	return w.cli.SetNX(ctx, key(purchaseID, day), "1", w.ttl)
}

func (w *ReminderWatermark) Exists(ctx context.Context, _ repository.Tx, purchaseID string, day time.Time) (bool, error) {
	_, err := w.cli.Get(ctx, key(purchaseID, day))
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
