package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loan-portfolio:"

// ScheduleCache stores generated amortization schedules in Redis as JSON.
type ScheduleCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ loan.ScheduleCache = (*ScheduleCache)(nil)

func NewScheduleCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ScheduleCache {
	if client == nil {
		panic("redis client cannot be nil for ScheduleCache")
	}
	return &ScheduleCache{client: client, ttl: ttl, logger: logger.With("component", "ScheduleCache")}
}

func (c *ScheduleCache) GetSchedule(ctx context.Context, key string) ([]loan.ScheduleEntry, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.WrapCacheError(err, fmt.Sprintf("failed to read %s", key))
	}

	var schedule []loan.ScheduleEntry
	if err := json.Unmarshal(raw, &schedule); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable cached schedule", "key", key, "error", err)
		return nil, false, nil
	}
	return schedule, true, nil
}

func (c *ScheduleCache) SetSchedule(ctx context.Context, key string, schedule []loan.ScheduleEntry) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule %s: %w", key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return apperrors.WrapCacheError(err, fmt.Sprintf("failed to write %s", key))
	}
	return nil
}
