package errors

import (
	"emuss/internal/errors"
)

// Kind tags a domain failure. The HTTP error classifier switches on it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidID
	KindConflict
	KindAuthentication
	KindForbidden
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:       "INTERNAL",
	KindValidation:     "VALIDATION",
	KindInvalidID:      "INVALID_ID",
	KindConflict:       "CONFLICT",
	KindAuthentication: "AUTHENTICATION",
	KindForbidden:      "FORBIDDEN",
	KindNotFound:       "NOT_FOUND",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "UNKNOWN"
}

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind
	Message() string // Client-safe message
	Details() any    // Structured payload (optional)
}

// BaseError is the only AppError implementation. Values are immutable.
type BaseError struct {
	kind    Kind
	message string
	details any
}

// New creates a domain error of the given kind
func New(kind Kind, message string) *BaseError {
	return &BaseError{kind: kind, message: message}
}

func Validation(message string) *BaseError     { return New(KindValidation, message) }
func InvalidID(message string) *BaseError      { return New(KindInvalidID, message) }
func Conflict(message string) *BaseError       { return New(KindConflict, message) }
func Authentication(message string) *BaseError { return New(KindAuthentication, message) }
func Forbidden(message string) *BaseError      { return New(KindForbidden, message) }
func NotFound(message string) *BaseError       { return New(KindNotFound, message) }

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) Kind() Kind {
	return e.kind
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Details() any {
	return e.details
}

// WithDetails returns a copy carrying details
func (e *BaseError) WithDetails(details any) *BaseError {
	return &BaseError{
		kind:    e.kind,
		message: e.message,
		details: details,
	}
}

// Is matches another BaseError with the same kind and message, so copies made
// by WithDetails still satisfy errors.Is against the predefined values.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.kind == t.kind && e.message == t.message
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// KindOf returns the kind of the first AppError in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind()
	}

	return KindInternal
}

// Predefined error values
var (
	// User-related errors
	ErrUserNotFound      = NotFound("User not found")
	ErrUserAlreadyExists = Conflict("User with this email already exists")
	ErrEmailTaken        = Conflict("Email already exists for another user")
	ErrNoFieldsToUpdate  = Validation("No valid fields to update")

	// Identifier errors
	ErrUserIDRequired = InvalidID("User ID is required")
	ErrInvalidUserID  = InvalidID("Invalid user ID format")

	// Authentication-related errors
	ErrInvalidCredentials = Authentication("Invalid email or password")

	// Request errors
	ErrInvalidRequestBody = Validation("Invalid request body")
)
