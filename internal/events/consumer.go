package events

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/rs/zerolog"
)

const defaultReceiveBackoff = 2 * time.Second

// Handler processes one provisioning event. Returning an error nacks the message so it is
// redelivered, and after three deliveries dead-lettered.
type Handler func(ctx context.Context, event Event) error

// EventConsumer reads provisioning events from a shared Pulsar subscription.
type EventConsumer struct {
	client         pulsar.Client
	consumer       pulsar.Consumer
	receiveBackoff time.Duration
}

// NewEventConsumer subscribes to topic. Messages nacked three times go to "<topic>-dlq".
func NewEventConsumer(pulsarURL, topic, subscription string) (*EventConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: subscription,
		Type:             pulsar.Shared,
		DLQ: &pulsar.DLQPolicy{
			MaxDeliveries:   3,
			DeadLetterTopic: topic + "-dlq",
		},
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar consumer: %w", err)
	}

	return &EventConsumer{
		client:         client,
		consumer:       consumer,
		receiveBackoff: defaultReceiveBackoff,
	}, nil
}

// Run hands every event to handle until ctx is done. Undecodable payloads and handler
// failures are nacked; receive errors are retried after a backoff.
func (c *EventConsumer) Run(ctx context.Context, handle Handler) error {
	logger := zerolog.Ctx(ctx)

	for {
		msg, err := c.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Dur("retry_in", c.receiveBackoff).Msg("Error receiving message")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.receiveBackoff):
			}
			continue
		}

		event, err := DecodeEvent(msg.Payload())
		if err != nil {
			logger.Error().Err(err).Str("message_id", msg.ID().String()).Msg("Invalid provisioning event")
			c.consumer.Nack(msg)
			continue
		}

		if err := handle(ctx, event); err != nil {
			logger.Error().Err(err).Str("action", event.Action).Str("id", event.ID).
				Msg("Failed to handle provisioning event")
			c.consumer.Nack(msg)
			continue
		}

		if err := c.consumer.Ack(msg); err != nil {
			logger.Warn().Err(err).Str("id", event.ID).Msg("Failed to acknowledge message")
		}
	}
}

// Close cleans up the Pulsar consumer and client.
func (c *EventConsumer) Close() {
	c.consumer.Close()
	if c.client != nil {
		c.client.Close()
	}
}
