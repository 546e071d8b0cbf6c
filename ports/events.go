package ports

import "context"

// EventPublisher publishes session lifecycle events
type EventPublisher interface {
	PublishSessionEstablished(ctx context.Context, accountID string, path string) error
	PublishSessionCleared(ctx context.Context, accountID string) error
}
