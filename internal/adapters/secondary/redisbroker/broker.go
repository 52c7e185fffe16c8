// Package redisbroker bridges the in-process hub to a Redis pub/sub channel
// so that notifications fan out across multiple server instances. Every
// instance publishes envelopes to one shared channel and feeds everything it
// receives into its local hub.
package redisbroker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// Broker publishes envelopes to a Redis channel. It implements
// ports.EventBroadcaster so services can stay unaware of whether they are
// talking to the local hub or the shared channel.
type Broker struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// New creates a Broker publishing to the given channel.
func New(client *redis.Client, channel string, logger *slog.Logger) *Broker {
	return &Broker{
		client:  client,
		channel: channel,
		logger:  logger.With("component", "redis_broker"),
	}
}

// Broadcast serializes the envelope and publishes it to the shared channel.
func (b *Broker) Broadcast(envelope realtime.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return b.client.Publish(context.Background(), b.channel, data).Err()
}

// Ping checks connectivity to Redis.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Subscribe consumes envelopes from the shared channel and hands them to the
// local sink until the context is cancelled. Malformed payloads are logged
// and skipped.
func (b *Broker) Subscribe(ctx context.Context, sink ports.EventBroadcaster) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	b.logger.Info("subscribed to event channel", "channel", b.channel)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var envelope realtime.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.logger.Error("failed to decode envelope", "error", err)
				continue
			}

			if err := sink.Broadcast(envelope); err != nil {
				b.logger.Error("failed to deliver envelope", "event", envelope.Event, "error", err)
			}

		case <-ctx.Done():
			b.logger.Info("event subscriber stopped")
			return ctx.Err()
		}
	}
}
