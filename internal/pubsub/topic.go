package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
)

// Handler processes one relay event. Delivery is at-least-once: the same
// event may be handed over again after a reconnect, so handlers must
// tolerate duplicates.
type Handler func(ctx context.Context, event *models.RelayEvent)

// Topic is the internal channel between the webhook receiver and the
// publisher, carried over Redis pub/sub.
type Topic struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewTopic(client *redis.Client, channel string, logger *zap.Logger) *Topic {
	return &Topic{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (t *Topic) Publish(ctx context.Context, event *models.RelayEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal relay event: %w", err)
	}

	if err := t.client.Publish(ctx, t.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish relay event: %w", err)
	}
	return nil
}

// Subscribe consumes the topic until ctx is cancelled, reconnecting with
// exponential backoff when the subscription drops. Malformed payloads are
// logged and skipped.
func (t *Topic) Subscribe(ctx context.Context, handle Handler) error {
	operation := func() error {
		sub := t.client.Subscribe(ctx, t.channel)
		defer sub.Close()

		// Wait for the subscription confirmation before consuming.
		if _, err := sub.Receive(ctx); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
		}

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			case m, ok := <-ch:
				if !ok {
					return errors.New("subscription channel closed")
				}

				var event models.RelayEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					t.logger.Warn("dropping malformed relay event",
						zap.String("payload", m.Payload),
						zap.Error(err))
					continue
				}
				handle(ctx, &event)
			}
		}
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0 // keep reconnecting until shutdown

	return backoff.Retry(func() error {
		err := operation()
		if err != nil && ctx.Err() == nil {
			t.logger.Error("subscription lost, reconnecting", zap.Error(err))
		}
		return err
	}, backoff.WithContext(b, ctx))
}
