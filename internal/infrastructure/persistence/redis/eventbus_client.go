package redis

import (
	"context"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/messaging"
)

// EventBusClient adapts Cache to the messaging.RedisClient interface so the
// distributed event bus can ride the same connection pool.
type EventBusClient struct {
	cache *Cache
}

// NewEventBusClient creates a new EventBusClient.
func NewEventBusClient(cache *Cache) *EventBusClient {
	return &EventBusClient{cache: cache}
}

// Publish sends a raw message to a channel. The bus serializes envelopes
// itself, so no JSON wrapping happens here.
func (c *EventBusClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.cache.Client().Publish(ctx, channel, message).Err()
}

// Subscribe opens a subscription and converts incoming messages. The
// returned channel closes when ctx is cancelled.
func (c *EventBusClient) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	pubsub := c.cache.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op; the shared Cache owns the connection.
func (c *EventBusClient) Close() error {
	return nil
}

var _ messaging.RedisClient = (*EventBusClient)(nil)
