package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/taskchain/ports"
)

// SessionTopic is the topic session lifecycle events are published to
const SessionTopic = "taskchain.session"

const (
	EventSessionEstablished = "session.established"
	EventSessionCleared     = "session.cleared"
)

// SessionEvent represents a session lifecycle change
type SessionEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"account_id"`
	Path       string    `json:"path,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SessionTopic,
		now:       time.Now,
	}
}

// PublishSessionEstablished publishes an event for a freshly established session
func (p *WatermillPublisher) PublishSessionEstablished(ctx context.Context, accountID string, path string) error {
	return p.publish(ctx, SessionEvent{
		Type:      EventSessionEstablished,
		AccountID: accountID,
		Path:      path,
	})
}

// PublishSessionCleared publishes an event for a logout
func (p *WatermillPublisher) PublishSessionCleared(ctx context.Context, accountID string) error {
	return p.publish(ctx, SessionEvent{
		Type:      EventSessionCleared,
		AccountID: accountID,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, event SessionEvent) error {
	event.OccurredAt = p.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
