// Package entity contains the core business objects of the project.
package entity

import (
	"time"
)

// User is an account as seen outside the storage layer. It deliberately has
// no password field: the hash only travels inside Credentials.
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	SchoolID    *int64     `json:"schoolId"`
	OfficeID    *int64     `json:"officeId"`
	PositionID  *int64     `json:"positionId"`
	Role        *string    `json:"role"`
	Designation *string    `json:"designation"`
	LastLogin   *time.Time `json:"lastLogin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Credentials pairs a user with the stored password hash for authentication.
type Credentials struct {
	User         *User
	PasswordHash string
}

// NewUser holds the fields accepted at registration. Password is plaintext;
// the repository hashes it before anything is written.
type NewUser struct {
	Email       string
	Password    string
	SchoolID    *int64
	OfficeID    *int64
	PositionID  *int64
	Role        *string
	Designation *string
}

// Field is one slot of a partial update. Set marks presence; a nil Value
// clears the column.
type Field[T any] struct {
	Set   bool
	Value *T
}

// SetField returns a present slot holding v.
func SetField[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// ClearField returns a present slot that nulls the column.
func ClearField[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UserPatch is a partial replace of a user's mutable fields.
type UserPatch struct {
	Email       Field[string]
	Password    Field[string] // plaintext, re-hashed by the repository
	SchoolID    Field[int64]
	OfficeID    Field[int64]
	PositionID  Field[int64]
	Role        Field[string]
	Designation Field[string]
}

// IsEmpty reports whether no field is present.
func (p *UserPatch) IsEmpty() bool {
	if p == nil {
		return true
	}

	return !p.Email.Set &&
		!p.Password.Set &&
		!p.SchoolID.Set &&
		!p.OfficeID.Set &&
		!p.PositionID.Set &&
		!p.Role.Set &&
		!p.Designation.Set
}
