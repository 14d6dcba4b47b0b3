// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"emuss/internal/domain/entity"
)

// --- Input DTOs ---

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUserInput defines the data required to register a new user.
type RegisterUserInput struct {
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	SchoolID    IDField        `json:"schoolId"`
	OfficeID    IDField        `json:"officeId"`
	PositionID  IDField        `json:"positionId"`
	Role        OptionalString `json:"role"`
	Designation OptionalString `json:"designation"`
}

// UpdateUserInput is a partial body; only keys present in the JSON are applied.
type UpdateUserInput struct {
	Email       OptionalString `json:"email"`
	Password    OptionalString `json:"password"`
	SchoolID    IDField        `json:"schoolId"`
	OfficeID    IDField        `json:"officeId"`
	PositionID  IDField        `json:"positionId"`
	Role        OptionalString `json:"role"`
	Designation OptionalString `json:"designation"`
}

// --- Output DTOs ---

// LoginOutput is returned after a successful authentication.
type LoginOutput struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

// RegisterOutput returns the newly created user.
type RegisterOutput struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

// UpdateOutput returns the user as stored after the update.
type UpdateOutput struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

// DeleteOutput confirms a deletion.
type DeleteOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// ListOutput returns every user.
type ListOutput struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Users   []*entity.User `json:"users"`
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer depends on.
type UserUsecase interface {
	Authenticate(ctx context.Context, input LoginInput) (*LoginOutput, error)
	RegisterUser(ctx context.Context, input RegisterUserInput) (*RegisterOutput, error)
	UpdateUser(ctx context.Context, rawID string, input UpdateUserInput) (*UpdateOutput, error)
	DeleteUser(ctx context.Context, rawID string) (*DeleteOutput, error)
	GetAllUsers(ctx context.Context) (*ListOutput, error)
}
