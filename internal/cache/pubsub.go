package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/models"
)

// PubSubManager fans submitted trades out over Redis channels.
type PubSubManager struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewPubSubManager(addr string, log *logrus.Logger) *PubSubManager {
	if log == nil {
		log = logrus.New()
	}
	return &PubSubManager{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		log: log,
	}
}

// PublishTrade publishes a trade event to the global channel plus
// pair- and venue-scoped channels.
func (p *PubSubManager) PublishTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	channels := []string{
		"trades:all",
		fmt.Sprintf("trades:pair:%s", trade.Pair),
		fmt.Sprintf("trades:venue:%s", trade.Venue),
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe consumes trade events from a channel until ctx is done or the
// channel closes.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.TradeEvent)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.log.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for msg := range ch {
		var trade models.TradeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
			p.log.WithError(err).Warn("dropping malformed trade event")
			continue
		}
		handler(&trade)
	}

	return nil
}

// PSubscribe consumes trade events matching a channel pattern, e.g.
// "trades:pair:*".
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.TradeEvent)) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	p.log.WithField("pattern", pattern).Info("subscribed")

	ch := pubsub.Channel()
	for msg := range ch {
		var trade models.TradeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
			p.log.WithError(err).Warn("dropping malformed trade event")
			continue
		}
		handler(&trade)
	}

	return nil
}

func (p *PubSubManager) Close() error {
	return p.client.Close()
}
