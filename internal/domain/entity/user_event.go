package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserEventType names a user lifecycle transition.
type UserEventType string

const (
	UserEventRegistered    UserEventType = "user.registered"
	UserEventAuthenticated UserEventType = "user.authenticated"
	UserEventUpdated       UserEventType = "user.updated"
	UserEventDeleted       UserEventType = "user.deleted"
)

// UserEvent is published after a successful user mutation or login and
// recorded by the audit worker.
type UserEvent struct {
	ID         string        `json:"id"`
	Type       UserEventType `json:"type"`
	UserID     int64         `json:"userId"`
	Email      string        `json:"email,omitempty"`
	RequestID  string        `json:"requestId,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// NewUserEvent stamps a fresh event id.
func NewUserEvent(eventType UserEventType, userID int64, email string, at time.Time) *UserEvent {
	return &UserEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: at,
	}
}

// AuditRecord is a stored UserEvent.
type AuditRecord struct {
	EventID    string
	Type       UserEventType
	UserID     int64
	Email      string
	RequestID  string
	OccurredAt time.Time
	ReceivedAt time.Time
}
