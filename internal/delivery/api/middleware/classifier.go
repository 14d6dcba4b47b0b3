package middleware

import (
	"context"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strconv"
	"syscall"

	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Client-facing messages.
const (
	MsgValidation        = "Validation Error"
	MsgInvalidID         = "Invalid ID format"
	MsgDuplicateField    = "Duplicate field value entered"
	MsgInvalidToken      = "Invalid token"
	MsgTokenExpired      = "Token expired"
	MsgAccessDenied      = "Access denied"
	MsgForbidden         = "Forbidden"
	MsgResourceNotFound  = "Resource not found"
	MsgUniqueViolation   = "Unique constraint violation"
	MsgRecordNotFound    = "Record not found"
	MsgForeignKey        = "Foreign key constraint violation"
	MsgStorageValidation = "Validation error"
	MsgDatabaseError     = "Database error"
	MsgFileTooLarge      = "File too large"
	MsgUnexpectedFile    = "Unexpected file field"
	MsgConnectionRefused = "Database connection refused"
	MsgRequestTimeout    = "Request timeout"
	MsgInternalError     = "Internal Server Error"
)

// PostgreSQL SQLSTATE codes.
const (
	pgCodeUnique          = "23505"
	pgCodeForeignKey      = "23503"
	pgCodeNotNull         = "23502"
	pgCodeCheck           = "23514"
	pgCodeInvalidTextRepr = "22P02"
)

// Classification is the HTTP rendering of a failure.
type Classification struct {
	Status  int
	Message string
	// Reason is the client-safe cause placed in the envelope's error field.
	Reason  string
	Details any
	// Category names the matched rule for logs.
	Category string
}

func classified(status int, message, category string) Classification {
	return Classification{Status: status, Message: message, Reason: message, Category: category}
}

// Classify maps err to a status and message. Rules are tried from the most
// specific to the least; the first match wins.
func Classify(err error) Classification {
	if err == nil {
		return classified(http.StatusInternalServerError, MsgInternalError, "internal")
	}

	if c, ok := classifyDomain(err); ok {
		return c
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return classified(http.StatusBadRequest, MsgInvalidID, "invalid_id")
	}

	if c, ok := classifyToken(err); ok {
		return c
	}

	if c, ok := classifyStorage(err); ok {
		return c
	}

	if c, ok := classifyTransport(err); ok {
		return c
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return classifyHTTPError(httpErr)
	}

	return classified(http.StatusInternalServerError, MsgInternalError, "internal")
}

func classifyDomain(err error) (Classification, bool) {
	appErr, ok := domainerrors.AsAppError(err)
	if !ok {
		return Classification{}, false
	}

	var c Classification
	switch appErr.Kind() {
	case domainerrors.KindValidation:
		c = Classification{Status: http.StatusBadRequest, Message: MsgValidation}
		c.Details = appErr.Details()
		if c.Details == nil {
			c.Details = appErr.Message()
		}
	case domainerrors.KindInvalidID:
		c = Classification{Status: http.StatusBadRequest, Message: MsgInvalidID, Details: appErr.Details()}
	case domainerrors.KindConflict:
		c = Classification{Status: http.StatusBadRequest, Message: MsgDuplicateField}
	case domainerrors.KindAuthentication:
		c = Classification{Status: http.StatusUnauthorized, Message: MsgAccessDenied}
	case domainerrors.KindForbidden:
		c = Classification{Status: http.StatusForbidden, Message: MsgForbidden}
	case domainerrors.KindNotFound:
		c = Classification{Status: http.StatusNotFound, Message: MsgResourceNotFound}
	default:
		return classified(http.StatusInternalServerError, MsgInternalError, "internal"), true
	}
	c.Reason = appErr.Message()
	c.Category = appErr.Kind().String()

	return c, true
}

func classifyToken(err error) (Classification, bool) {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return classified(http.StatusUnauthorized, MsgTokenExpired, "token_expired"), true
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return classified(http.StatusUnauthorized, MsgInvalidToken, "token_invalid"), true
	}

	return Classification{}, false
}

func classifyStorage(err error) (Classification, bool) {
	code := ""
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code = pgErr.Code
	}

	switch {
	case code == pgCodeUnique, errors.Is(err, gorm.ErrDuplicatedKey):
		return classified(http.StatusBadRequest, MsgUniqueViolation, "unique_violation"), true
	case errors.Is(err, gorm.ErrRecordNotFound):
		return classified(http.StatusNotFound, MsgRecordNotFound, "record_not_found"), true
	case code == pgCodeForeignKey, errors.Is(err, gorm.ErrForeignKeyViolated):
		return classified(http.StatusBadRequest, MsgForeignKey, "foreign_key_violation"), true
	case code == pgCodeNotNull, code == pgCodeCheck, code == pgCodeInvalidTextRepr,
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrInvalidValue):
		return classified(http.StatusBadRequest, MsgStorageValidation, "storage_validation"), true
	case pgErr != nil:
		return classified(http.StatusInternalServerError, MsgDatabaseError, "database"), true
	}

	return Classification{}, false
}

func classifyTransport(err error) (Classification, bool) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || errors.Is(err, multipart.ErrMessageTooLarge) || isEchoStatus(err, http.StatusRequestEntityTooLarge) {
		return classified(http.StatusBadRequest, MsgFileTooLarge, "body_too_large"), true
	}

	if errors.Is(err, http.ErrMissingFile) {
		return classified(http.StatusBadRequest, MsgUnexpectedFile, "unexpected_file"), true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return classified(http.StatusServiceUnavailable, MsgConnectionRefused, "connection_refused"), true
	}

	if isTimeout(err) {
		return classified(http.StatusRequestTimeout, MsgRequestTimeout, "timeout"), true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return classified(http.StatusServiceUnavailable, MsgConnectionRefused, "connection_refused"), true
	}

	return Classification{}, false
}

func classifyHTTPError(httpErr *echo.HTTPError) Classification {
	// A known path with the wrong method is reported as an unknown route.
	if httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusMethodNotAllowed {
		return classified(http.StatusNotFound, MsgResourceNotFound, "route_not_found")
	}

	message := http.StatusText(httpErr.Code)
	if msg, ok := httpErr.Message.(string); ok && msg != "" {
		message = msg
	}
	if message == "" {
		message = MsgInternalError
	}

	return classified(httpErr.Code, message, "http")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// isEchoStatus checks every echo.HTTPError in the chain, including ones
// carried as Internal.
func isEchoStatus(err error, status int) bool {
	for err != nil {
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) {
			return false
		}
		if httpErr.Code == status {
			return true
		}
		err = httpErr.Internal
	}

	return false
}
