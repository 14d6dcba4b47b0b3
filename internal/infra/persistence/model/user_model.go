package model

import (
	"time"
)

// UserModel mirrors the 'users' table. The id is a store-assigned bigserial.
type UserModel struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"`
	SchoolID     *int64  `gorm:"index"`
	OfficeID     *int64  `gorm:"index"`
	PositionID   *int64
	Role         *string `gorm:"type:varchar(100)"`
	Designation  *string `gorm:"type:varchar(255)"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
