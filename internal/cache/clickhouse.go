package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/models"
)

// ClickHouseStore journals submitted trades for offline analysis.
type ClickHouseStore struct {
	conn driver.Conn
}

func NewClickHouseStore(addr, database, username, password string, log *logrus.Logger) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if log != nil {
		log.WithField("addr", addr).Info("connected to ClickHouse")
	}

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertTrade(ctx context.Context, trade *models.TradeEvent) error {
	query := `
		INSERT INTO trades (
			signature, timestamp, owner, pair, input_mint, output_mint,
			amount_in, expected_out, minimum_out, hops, venue,
			price_impact_pct, fee
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		trade.Signature,
		trade.Timestamp,
		trade.Owner,
		trade.Pair,
		trade.InputMint,
		trade.OutputMint,
		trade.AmountIn,
		trade.ExpectedOut,
		trade.MinimumOut,
		trade.Hops,
		trade.Venue,
		trade.PriceImpactPct,
		trade.Fee,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
