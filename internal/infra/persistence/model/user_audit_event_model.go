package model

import (
	"time"
)

// UserAuditEventModel mirrors the 'user_audit_events' table. user_id carries
// no foreign key so deletions stay auditable.
type UserAuditEventModel struct {
	EventID    string    `gorm:"type:varchar(36);primaryKey"`
	EventType  string    `gorm:"type:varchar(50);not null"`
	UserID     int64     `gorm:"not null;index"`
	Email      string    `gorm:"type:varchar(255)"`
	RequestID  string    `gorm:"type:varchar(100)"`
	OccurredAt time.Time `gorm:"not null"`
	ReceivedAt time.Time `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (UserAuditEventModel) TableName() string {
	return "user_audit_events"
}
