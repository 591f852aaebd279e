// Package cache keeps generated schedules keyed by a hash of their inputs.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "mortgage-trust:schedule:"

// Cache stores schedules. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (loans.Schedule, bool, error)
	Set(ctx context.Context, key string, schedule loans.Schedule) error
}

// Config selects and sizes a backend.
type Config struct {
	Backend    string `yaml:"backend"`
	RedisAddr  string `yaml:"redisAddr"`
	TTLSeconds int    `yaml:"ttlSeconds"`
	MaxEntries int    `yaml:"maxEntries"`
}

// New builds the configured backend. The "none" backend returns a nil
// Cache, which callers treat as caching disabled.
func New(cfg Config) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if cfg.TTLSeconds == 0 {
		ttl = constants.DefaultCacheTTLSeconds * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case constants.CacheBackendNone:
		return nil, nil
	case "", constants.CacheBackendMemory:
		max := cfg.MaxEntries
		if max <= 0 {
			max = constants.DefaultMemoryCacheEntries
		}
		return NewMemory(max, ttl), nil
	case constants.CacheBackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redis cache requires redisAddr")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedis(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// keyInput is everything a schedule depends on.
type keyInput struct {
	Parameters      loans.LoanParameters `json:"parameters"`
	Assumptions     assumptions.Set      `json:"assumptions"`
	Extras          []loans.ExtraPayment `json:"extras"`
	LastPaymentDate *civil.Date          `json:"lastPaymentDate"`
}

// Key hashes the generator inputs. Assumption set names do not affect the
// schedule, so sets that differ only by name share a key.
func Key(params loans.LoanParameters, set assumptions.Set, extras []loans.ExtraPayment, lastPaymentDate *civil.Date) (string, error) {
	doc := set.Document()
	doc.Name = "-"
	named, err := doc.Build()
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}

	data, err := json.Marshal(keyInput{
		Parameters:      params,
		Assumptions:     named,
		Extras:          loans.SortExtraPayments(extras),
		LastPaymentDate: lastPaymentDate,
	})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return fmt.Sprintf("%s%016x", KeyPrefix, xxhash.Sum64(data)), nil
}
