package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/araviel-io/onesol-swap-engine/internal/models"
	"github.com/araviel-io/onesol-swap-engine/internal/resolver"
)

const (
	holdingsKeyPrefix = "holdings:"
	recentTradesKey   = "trades:recent"
	recentTradesMax   = 500

	// Holding snapshots go stale as soon as a batch lands, so keep the
	// horizon short.
	holdingsTTL = 2 * time.Minute
)

// RedisCache caches per-owner holding-account snapshots and a rolling list
// of recent trades.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
	}
}

// SaveHoldings stores the holding accounts known for an owner.
func (r *RedisCache) SaveHoldings(ctx context.Context, owner string, holdings []resolver.HoldingAccount) error {
	data, err := json.Marshal(holdings)
	if err != nil {
		return fmt.Errorf("marshal holdings: %w", err)
	}
	return r.client.Set(ctx, holdingsKeyPrefix+owner, data, holdingsTTL).Err()
}

// LoadHoldings returns the cached holding accounts for an owner, or nil on a
// cache miss.
func (r *RedisCache) LoadHoldings(ctx context.Context, owner string) ([]resolver.HoldingAccount, error) {
	data, err := r.client.Get(ctx, holdingsKeyPrefix+owner).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	var holdings []resolver.HoldingAccount
	if err := json.Unmarshal(data, &holdings); err != nil {
		return nil, fmt.Errorf("unmarshal holdings: %w", err)
	}
	return holdings, nil
}

// InvalidateHoldings drops an owner's snapshot, typically after a batch that
// created or closed accounts has been submitted.
func (r *RedisCache) InvalidateHoldings(ctx context.Context, owner string) error {
	return r.client.Del(ctx, holdingsKeyPrefix+owner).Err()
}

// AddRecentTrade pushes a trade onto the rolling recent-trades list.
func (r *RedisCache) AddRecentTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, recentTradesKey, data)
	pipe.LTrim(ctx, recentTradesKey, 0, recentTradesMax-1)
	_, err = pipe.Exec(ctx)
	return err
}

// GetRecentTrades returns up to limit most recent trades, newest first.
func (r *RedisCache) GetRecentTrades(ctx context.Context, limit int64) ([]*models.TradeEvent, error) {
	raw, err := r.client.LRange(ctx, recentTradesKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}

	trades := make([]*models.TradeEvent, 0, len(raw))
	for _, entry := range raw {
		var trade models.TradeEvent
		if err := json.Unmarshal([]byte(entry), &trade); err != nil {
			continue
		}
		trades = append(trades, &trade)
	}
	return trades, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
