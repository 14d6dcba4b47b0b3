package repository

import (
	"context"

	"emuss/internal/domain/entity"
)

// AuditRepository stores user lifecycle events received by the audit worker.
type AuditRepository interface {
	// Record stores the event. Recording an event id twice is a no-op and
	// reports inserted=false.
	Record(ctx context.Context, record *entity.AuditRecord) (inserted bool, err error)

	// ListByUser returns the events of one user, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]*entity.AuditRecord, error)
}
