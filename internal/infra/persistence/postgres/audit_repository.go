package postgres

import (
	"context"

	"emuss/internal/domain/entity"
	"emuss/internal/domain/repository"
	"emuss/internal/errors"
	"emuss/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository is the constructor for auditRepository.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Record inserts the event once. Pub/Sub redelivery hits the primary key and
// is reported as inserted=false.
func (repo *auditRepository) Record(ctx context.Context, record *entity.AuditRecord) (bool, error) {
	if record == nil {
		return false, errors.New("audit record is nil")
	}

	eventM := toAuditModel(record)
	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(eventM)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to record audit event")
	}

	return result.RowsAffected > 0, nil
}

// ListByUser returns one user's events, oldest first.
func (repo *auditRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.AuditRecord, error) {
	var eventMs []*model.UserAuditEventModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at ASC").
		Order("event_id ASC").
		Find(&eventMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit events")
	}

	records := make([]*entity.AuditRecord, 0, len(eventMs))
	for _, eventM := range eventMs {
		records = append(records, toAuditDomain(eventM))
	}

	return records, nil
}

func toAuditModel(data *entity.AuditRecord) *model.UserAuditEventModel {
	return &model.UserAuditEventModel{
		EventID:    data.EventID,
		EventType:  string(data.Type),
		UserID:     data.UserID,
		Email:      data.Email,
		RequestID:  data.RequestID,
		OccurredAt: data.OccurredAt,
		ReceivedAt: data.ReceivedAt,
	}
}

func toAuditDomain(data *model.UserAuditEventModel) *entity.AuditRecord {
	return &entity.AuditRecord{
		EventID:    data.EventID,
		Type:       entity.UserEventType(data.EventType),
		UserID:     data.UserID,
		Email:      data.Email,
		RequestID:  data.RequestID,
		OccurredAt: data.OccurredAt,
		ReceivedAt: data.ReceivedAt,
	}
}
