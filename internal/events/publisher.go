package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MGallo-Code/habitual/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Publisher wraps a Redis client and a channel name.
// Fire-and-forget: Publish returns once the broker accepts the message.
type Publisher struct {
	rdb     *redis.Client
	channel string
	metrics *metrics.Metrics
}

// NewPublisher returns a Publisher bound to channel. m may be nil.
func NewPublisher(rdb *redis.Client, channel string, m *metrics.Metrics) *Publisher {
	return &Publisher{rdb: rdb, channel: channel, metrics: m}
}

// Publish serializes ev and PUBLISHes it. Zero receivers is not an error;
// the event is simply lost.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.metrics.EventPublished(string(ev.Type), err)
		return fmt.Errorf("marshaling event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, payload).Result()
	p.metrics.EventPublished(string(ev.Type), err)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Type, err)
	}

	slog.Debug("event published",
		"channel", p.channel,
		"type", ev.Type,
		"event_id", ev.ID,
		"receivers", receivers,
	)
	return nil
}
