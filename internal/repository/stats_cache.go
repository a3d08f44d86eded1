package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobportal/profile-sync/internal/domain"
)

// StatsCache caches dashboard aggregates.
type StatsCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, stats domain.DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

const dashboardStatsKey = "jobportal:dashboard:stats"

type redisStatsCache struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStatsCache returns a cache backed by client. A nil client yields a cache that
// always misses.
func NewRedisStatsCache(client *redis.Client) StatsCache {
	if client == nil {
		return noopStatsCache{}
	}
	return &redisStatsCache{client: client, timeout: 250 * time.Millisecond}
}

func (c *redisStatsCache) Get(ctx context.Context) (*domain.DashboardStats, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, dashboardStatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read dashboard cache: %w", err)
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return &stats, true, nil
}

func (c *redisStatsCache) Set(ctx context.Context, stats domain.DashboardStats, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}
	return c.client.Set(ctx, dashboardStatsKey, raw, ttl).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Del(ctx, dashboardStatsKey).Err()
}

type noopStatsCache struct{}

func (noopStatsCache) Get(context.Context) (*domain.DashboardStats, bool, error) {
	return nil, false, nil
}

func (noopStatsCache) Set(context.Context, domain.DashboardStats, time.Duration) error {
	return nil
}

func (noopStatsCache) Invalidate(context.Context) error {
	return nil
}
