package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
)

// Cached wraps a Provider with a Redis read-through cache. Cache failures are
// logged and fall through to the wrapped provider; errors are never cached.
type Cached struct {
	next   Provider
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

type freshReadKey struct{}

// WithFreshRead marks ctx so that Cached skips its read and refreshes the
// entry from the wrapped provider.
func WithFreshRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshReadKey{}, true)
}

// FreshRead reports whether ctx was marked by WithFreshRead.
func FreshRead(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshReadKey{}).(bool)
	return fresh
}

// NewCached returns next unchanged when caching is disabled.
func NewCached(next Provider, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) Provider {
	if client == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, redis: client, ttl: ttl, logger: logger}
}

func (c *Cached) Machine(ctx context.Context, machineID int64) (rules.Machine, error) {
	key := fmt.Sprintf("booking:machine:%d", machineID)

	var m rules.Machine
	if c.readCache(ctx, key, &m) {
		return m, nil
	}
	m, err := c.next.Machine(ctx, machineID)
	if err != nil {
		return rules.Machine{}, err
	}
	c.writeCache(ctx, key, m)
	return m, nil
}

func (c *Cached) Unavailability(ctx context.Context, machineID int64, from, to time.Time) (availability.Snapshot, error) {
	key := fmt.Sprintf("booking:unavailability:%d:%s:%s", machineID, parse.FormatDate(from), parse.FormatDate(to))

	var snap availability.Snapshot
	if c.readCache(ctx, key, &snap) {
		return snap, nil
	}
	snap, err := c.next.Unavailability(ctx, machineID, from, to)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, snap)
	return snap, nil
}

func (c *Cached) readCache(ctx context.Context, key string, out any) bool {
	if FreshRead(ctx) {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry is corrupt")
		return false
	}
	return true
}

func (c *Cached) writeCache(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
