package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

type pubsub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error)
}

// RedisRelay publishes events through Redis so every API instance's Bus sees them.
// Services publish to the relay; Run feeds received events into the local Bus.
type RedisRelay struct {
	client  pubsub
	channel string
	bus     *Bus
	logg    *logger.Logger
}

// NewRedisRelay wires a relay between a Redis pub/sub channel and the local bus.
func NewRedisRelay(client pubsub, channel string, bus *Bus, logg *logger.Logger) (*RedisRelay, error) {
	if client == nil {
		return nil, fmt.Errorf("redis pubsub client required")
	}
	if channel == "" {
		return nil, fmt.Errorf("relay channel required")
	}
	if bus == nil {
		return nil, fmt.Errorf("notify bus required")
	}
	return &RedisRelay{client: client, channel: channel, bus: bus, logg: logg}, nil
}

// Publish forwards the event to Redis. Failures are logged and swallowed.
func (r *RedisRelay) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logError(ctx, "marshal change event", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload); err != nil {
		r.logError(ctx, "publish change event", err)
	}
}

// Run consumes the relay channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	messages, closeFn, err := r.client.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				r.logError(ctx, "decode relayed change event", err)
				continue
			}
			r.bus.Publish(ctx, event)
		}
	}
}

func (r *RedisRelay) logError(ctx context.Context, msg string, err error) {
	if r.logg != nil {
		r.logg.Error(ctx, msg, err)
	}
}
