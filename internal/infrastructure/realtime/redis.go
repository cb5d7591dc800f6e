package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/akvora-api/internal/infrastructure/metrics"
	"github.com/redis/go-redis/v9"
)

// envelope carries a frame between instances.
type envelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisBridge fans events out to every instance through a Redis pub/sub
// channel. Each instance runs the bridge and delivers what it receives to
// its local hub, its own publishes included.
type RedisBridge struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
}

func NewRedisBridge(rdb *redis.Client, channel string, hub *Hub) *RedisBridge {
	return &RedisBridge{rdb: rdb, channel: channel, hub: hub}
}

func (b *RedisBridge) EmitToUser(ctx context.Context, userID, event string, data any) error {
	return b.publish(ctx, UserRoom(userID), event, data)
}

func (b *RedisBridge) EmitToRoom(ctx context.Context, room, event string, data any) error {
	return b.publish(ctx, room, event, data)
}

func (b *RedisBridge) Broadcast(ctx context.Context, event string, data any) error {
	return b.publish(ctx, "", event, data)
}

func (b *RedisBridge) publish(ctx context.Context, room, event string, data any) error {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	payload, err := json.Marshal(envelope{Room: room, Frame: msg})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		// Other instances miss this event; local clients still get it.
		b.hub.Deliver(room, msg)
		return fmt.Errorf("publish realtime event: %w", err)
	}
	return nil
}

// Run relays channel messages to the local hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	slog.Info("realtime bridge subscribed", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				slog.Warn("discarding malformed realtime envelope", "err", err)
				continue
			}
			b.hub.Deliver(env.Room, env.Frame)
		}
	}
}
