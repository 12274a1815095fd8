package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

// Provisioning actions carried by an Event.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// Event announces a change to a provisioned resource.
type Event struct {
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Timestamp    int64  `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(action, resourceType, id string) Event {
	return Event{
		Action:       action,
		ResourceType: resourceType,
		ID:           id,
		Timestamp:    time.Now().UTC().Unix(),
	}
}

// DecodeEvent parses a message payload.
func DecodeEvent(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("could not decode event payload: %w", err)
	}
	return e, nil
}

// Notifier publishes provisioning events.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopNotifier discards every event. Used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) Publish(ctx context.Context, event Event) error { return nil }
func (NoopNotifier) Close()                                          {}

type EventPublisher struct {
	client   pulsar.Client
	producer pulsar.Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: pulsarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	return &EventPublisher{
		client:   client,
		producer: producer,
	}, nil
}

// Publish sends an event keyed by resource id, so events for one resource stay ordered.
func (p *EventPublisher) Publish(ctx context.Context, event Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not serialize event payload: %w", err)
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     event.ID,
		Payload: message,
	})
	if err != nil {
		return fmt.Errorf("could not send event to Pulsar: %w", err)
	}
	return nil
}

// Close closes the Pulsar client and producer
func (p *EventPublisher) Close() {
	p.producer.Close()
	p.client.Close()
}
