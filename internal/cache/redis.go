package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/redis/go-redis/v9"
)

// redisClient is the part of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis stores schedules as JSON in Redis.
type Redis struct {
	client redisClient
	ttl    time.Duration
}

// NewRedis wraps client. A zero ttl stores entries without expiry.
func NewRedis(client redisClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached schedule for key.
func (r *Redis) Get(ctx context.Context, key string) (loans.Schedule, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return loans.Schedule{}, false, nil
	}
	if err != nil {
		return loans.Schedule{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var schedule loans.Schedule
	if err := json.Unmarshal(val, &schedule); err != nil {
		return loans.Schedule{}, false, fmt.Errorf("decode cached schedule %s: %w", key, err)
	}
	return schedule, true, nil
}

// Set stores schedule under key.
func (r *Redis) Set(ctx context.Context, key string, schedule loans.Schedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
