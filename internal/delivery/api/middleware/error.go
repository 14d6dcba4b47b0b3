// Package middleware holds the API-specific echo middleware and the error
// classifier that renders every failure.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"emuss/config"
	"emuss/internal/delivery/api/response"
	deliverycontext "emuss/internal/delivery/context"
	"emuss/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger    *slog.Logger
	withStack bool
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger, cfg *config.Config) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger:    logger,
		withStack: cfg == nil || !cfg.IsProduction(),
	}
}

// HandleHTTPError is echo's HTTPErrorHandler. Every failure leaves through here.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	class := Classify(err)
	if class.Category == "route_not_found" {
		class.Reason = "Route not found - " + c.Request().URL.RequestURI()
	}

	m.log(c, err, class)

	stack := ""
	if m.withStack {
		stack = errors.StackTrace(err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(class.Status)
	} else {
		writeErr = response.Error(c, class.Status, class.Message, class.Reason, class.Details, stack)
	}
	if writeErr != nil {
		m.logger.Error("Failed to write error response", slog.Any("error", writeErr))
	}
}

func (m *ErrorMiddleware) log(c echo.Context, err error, class Classification) {
	req := c.Request()

	attrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("category", class.Category),
		slog.Int("status", class.Status),
		slog.String("method", req.Method),
		slog.String("url", req.URL.RequestURI()),
		slog.String("request_id", deliverycontext.GetRequestID(c)),
		slog.String("timestamp", response.Timestamp(time.Now())),
	}
	if body := CapturedBody(c); body != nil {
		attrs = append(attrs, slog.Any("body", body))
	}
	if params := pathParams(c); len(params) > 0 {
		attrs = append(attrs, slog.Any("params", params))
	}
	if query := req.URL.Query(); len(query) > 0 {
		attrs = append(attrs, slog.Any("query", query))
	}

	level := slog.LevelWarn
	if class.Status >= http.StatusInternalServerError || class.Status == http.StatusRequestTimeout {
		level = slog.LevelError
		attrs = append(attrs, slog.String("stack", errors.StackTrace(err)))
	}

	m.logger.LogAttrs(req.Context(), level, "Request failed", attrs...)
}

func pathParams(c echo.Context) map[string]string {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}

	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = c.Param(name)
	}

	return params
}
