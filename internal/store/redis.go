package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/theirongolddev/homecalc/internal/model"
)

// RedisRateCache keeps the rate payload in Redis so several hosts can share
// one fetch.
type RedisRateCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRateCache connects to the Redis server at addr.
func NewRedisRateCache(addr string) *RedisRateCache {
	return &RedisRateCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		now:    time.Now,
	}
}

// Ping checks the connection.
func (r *RedisRateCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisRateCache) Close() error {
	return r.client.Close()
}

// GetRates returns the cached payload if present and fetched within RateCacheTTL.
func (r *RedisRateCache) GetRates(ctx context.Context) (*model.RatesPayload, error) {
	val, err := r.client.Get(ctx, RateCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var p model.RatesPayload
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, nil //nolint:nilerr // corrupt cache entries are ignored
	}
	if !p.HasData() || r.now().Sub(p.FetchedTime()) >= RateCacheTTL {
		return nil, nil
	}
	return &p, nil
}

// PutRates stores p with the remaining TTL measured from its fetch time.
func (r *RedisRateCache) PutRates(ctx context.Context, p *model.RatesPayload) error {
	if p == nil {
		return nil
	}
	ttl := RateCacheTTL - r.now().Sub(p.FetchedTime())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}
	return r.client.Set(ctx, RateCacheKey, data, ttl).Err()
}
