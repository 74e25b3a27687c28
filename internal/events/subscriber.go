package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MGallo-Code/habitual/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// HandlerFunc reacts to one decoded event. It must not block for long;
// messages are handled sequentially in the order the broker delivers them.
type HandlerFunc func(ctx context.Context, ev Event)

// Subscriber listens on one channel and dispatches decoded events to a handler.
type Subscriber struct {
	rdb     *redis.Client
	channel string
	handle  HandlerFunc
	metrics *metrics.Metrics
}

// NewSubscriber returns a Subscriber for channel. m may be nil.
func NewSubscriber(rdb *redis.Client, channel string, handle HandlerFunc, m *metrics.Metrics) *Subscriber {
	return &Subscriber{rdb: rdb, channel: channel, handle: handle, metrics: m}
}

// Subscribe confirms the subscription with the broker and returns a function
// that drains messages until ctx is cancelled. Splitting the two lets callers
// fail startup on a bad subscription and run the loop in a goroutine.
func (s *Subscriber) Subscribe(ctx context.Context) (run func(), err error) {
	ps := s.rdb.Subscribe(ctx, s.channel)

	// Receive blocks until the SUBSCRIBE is acknowledged (or fails).
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	slog.Info("subscribed to events", "channel", s.channel)

	return func() {
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				slog.Info("event subscriber stopped", "channel", s.channel)
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.dispatch(ctx, msg.Payload)
			}
		}
	}, nil
}

// dispatch decodes one payload and hands it to the handler.
// Undecodable payloads are logged and dropped; there is no retry.
func (s *Subscriber) dispatch(ctx context.Context, payload string) {
	ev, err := Decode([]byte(payload))
	if err != nil {
		s.metrics.EventReceived("invalid")
		slog.Warn("dropping undecodable event", "channel", s.channel, "error", err)
		return
	}
	s.metrics.EventReceived(string(ev.Type))
	s.handle(ctx, ev)
}
