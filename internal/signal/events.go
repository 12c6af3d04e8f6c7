package signal

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"log/slog"

	"github.com/tignatov6/CallMi/internal/app"
)

const eventsChannel = "rooms:events"

type busEvent struct {
	Event string `json:"event"` // room_created | room_deleted | room_updated
}

// EventBus carries room-directory change events over redis pub/sub. The
// REST API and the reclaimer publish; the lobby fan-out subscribes.
type EventBus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewEventBus connects to redis and verifies connectivity
func NewEventBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*EventBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &EventBus{rdb: rdb, log: log}, nil
}

// Publish announces a directory change
func (b *EventBus) Publish(ctx context.Context, event string) error {
	raw, _ := json.Marshal(busEvent{Event: event})
	return b.rdb.Publish(ctx, eventsChannel, raw).Err()
}

// Subscribe invokes fn for every directory change until ctx ends
func (b *EventBus) Subscribe(ctx context.Context, fn func(event string)) {
	pubsub := b.rdb.Subscribe(ctx, eventsChannel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var ev busEvent
			_ = json.Unmarshal([]byte(msg.Payload), &ev)
			if ev.Event != "" {
				fn(ev.Event)
			}
		}
	}
}

// Close shuts down the redis connection
func (b *EventBus) Close() { _ = b.rdb.Close() }
