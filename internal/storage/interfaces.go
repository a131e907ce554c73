package storage

import (
	"context"
	"io"

	"github.com/araviel-io/onesol-swap-engine/internal/models"
	"github.com/araviel-io/onesol-swap-engine/internal/resolver"
)

// TradeCache defines the interface for the hot-path cache: holding-account
// snapshots consumed by the account resolver plus a rolling trade feed.
type TradeCache interface {
	// SaveHoldings stores the holding accounts known for an owner.
	SaveHoldings(ctx context.Context, owner string, holdings []resolver.HoldingAccount) error

	// LoadHoldings returns an owner's cached holdings, nil on a miss.
	LoadHoldings(ctx context.Context, owner string) ([]resolver.HoldingAccount, error)

	// InvalidateHoldings drops an owner's snapshot.
	InvalidateHoldings(ctx context.Context, owner string) error

	// AddRecentTrade adds a trade to the recent-trades list.
	AddRecentTrade(ctx context.Context, trade *models.TradeEvent) error

	// GetRecentTrades retrieves the most recent trades.
	GetRecentTrades(ctx context.Context, limit int64) ([]*models.TradeEvent, error)

	// Ping checks if the cache is reachable.
	Ping(ctx context.Context) error

	io.Closer
}

// TradeStore defines the interface for the persistent trade journal.
type TradeStore interface {
	InsertTrade(ctx context.Context, trade *models.TradeEvent) error

	Ping(ctx context.Context) error

	io.Closer
}

// TradePublisher fans out submitted trades to live subscribers.
type TradePublisher interface {
	PublishTrade(ctx context.Context, trade *models.TradeEvent) error

	io.Closer
}
