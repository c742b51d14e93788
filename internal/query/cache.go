package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/smoska/flightgraph/internal/config"
	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// HubCache is a read-through cache for hub rankings. Entirely optional: a
// nil *HubCache is a no-op, so the engine never branches on its presence.
// Never a source of truth; entries just expire.
type HubCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewHubCache connects to redis when an address is configured; returns
// (nil, nil) otherwise so callers can wire it unconditionally.
func NewHubCache(cfg config.RedisConfig, log *logger.Logger) (*HubCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &HubCache{
		rdb: rdb,
		ttl: cfg.HubsTTL,
		log: log.With("component", "hub_cache"),
	}, nil
}

func (c *HubCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func hubCacheKey(opts HubOptions, opsWeight, routeWeight float64) string {
	return fmt.Sprintf("hubs:limit=%d:minops=%d:w=%g,%g", opts.Limit, opts.MinOps, opsWeight, routeWeight)
}

func (c *HubCache) Get(ctx context.Context, opts HubOptions, opsWeight, routeWeight float64) ([]domain.HubAirport, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, hubCacheKey(opts, opsWeight, routeWeight)).Bytes()
	if err != nil {
		return nil, false
	}
	var hubs []domain.HubAirport
	if err := json.Unmarshal(raw, &hubs); err != nil {
		return nil, false
	}
	return hubs, true
}

func (c *HubCache) Set(ctx context.Context, opts HubOptions, opsWeight, routeWeight float64, hubs []domain.HubAirport) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(hubs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, hubCacheKey(opts, opsWeight, routeWeight), raw, c.ttl).Err(); err != nil {
		c.log.Warn("hub cache write failed", "error", err)
	}
}
