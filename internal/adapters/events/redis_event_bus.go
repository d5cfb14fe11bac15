package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	redisclient "github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/redis"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer bounds how far a slow listener may lag before events are dropped
const subscriberBuffer = 100

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redisclient.Client
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{client: client}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.DomainEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("published domain event")
	return nil
}

// Subscribe opens a dedicated subscription on channel. The returned channel is
// closed once ctx is done and the Redis subscription has been released.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DomainEvent, error) {
	pubsub := b.client.Client().Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan *entities.DomainEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to close subscription")
			}
		}()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event, err := decodeEvent(msg.Payload)
				if err != nil {
					log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
					continue
				}
				select {
				case out <- event:
				default:
					log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
				}
			}
		}
	}()

	log.Info().Str("channel", channel).Msg("subscribed to channel")
	return out, nil
}

func encodeEvent(event *entities.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

func decodeEvent(payload string) (*entities.DomainEvent, error) {
	var event entities.DomainEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event without type")
	}
	return &event, nil
}
