package service

import (
	"context"

	"emuss/internal/domain/entity"
)

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishUserEvent publishes a user lifecycle event for async processing
	PublishUserEvent(ctx context.Context, event *entity.UserEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
