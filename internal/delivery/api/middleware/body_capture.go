package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	capturedBodyKey  = "captured_body"
	redactedValue    = "[REDACTED]"
	maxUnparsedBytes = 1024
)

// sensitiveFields are replaced before a body reaches the logs.
var sensitiveFields = []string{"password"}

// CaptureBody buffers the request body so the error handler can log it. The
// handler still reads the full body. Read failures, such as the body limit,
// end the request with that error.
func CaptureBody(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if req.Body == nil || req.Body == http.NoBody {
			return next(c)
		}

		raw, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return err
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		c.Set(capturedBodyKey, raw)

		return next(c)
	}
}

// CapturedBody returns the redacted request body, or nil when none was read.
func CapturedBody(c echo.Context) any {
	raw, ok := c.Get(capturedBodyKey).([]byte)
	if !ok || len(raw) == 0 {
		return nil
	}

	return redactBody(raw)
}

func redactBody(raw []byte) any {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		text := string(raw)
		if len(text) > maxUnparsedBytes {
			text = text[:maxUnparsedBytes] + "..."
		}
		for _, name := range sensitiveFields {
			if strings.Contains(strings.ToLower(text), name) {
				return "[unparsed body with sensitive fields]"
			}
		}

		return text
	}

	for key := range fields {
		for _, name := range sensitiveFields {
			if strings.EqualFold(key, name) {
				fields[key] = redactedValue
			}
		}
	}

	return fields
}
