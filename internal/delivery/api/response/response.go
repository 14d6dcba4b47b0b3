// Package response writes the JSON envelopes returned by the API.
package response

import (
	"time"

	deliverycontext "emuss/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	Stack     string `json:"stack,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	RequestID string `json:"requestId"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// Success writes a payload that already carries its own success envelope.
func Success(c echo.Context, statusCode int, payload any) error {
	return c.JSON(statusCode, payload)
}

// Error writes the failure envelope. Stack is omitted when empty.
func Error(c echo.Context, statusCode int, message, reason string, details any, stack string) error {
	req := c.Request()

	return c.JSON(statusCode, ErrorResponse{
		Success:   false,
		Message:   message,
		Error:     reason,
		Details:   details,
		Stack:     stack,
		Timestamp: Timestamp(time.Now()),
		Path:      req.URL.RequestURI(),
		Method:    req.Method,
		RequestID: deliverycontext.GetRequestID(c),
	})
}

// Timestamp formats t the way every envelope does.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
