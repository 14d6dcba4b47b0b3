package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBody_HandlerStillReadsBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.io"}`))
	c := e.NewContext(req, httptest.NewRecorder())

	var seen string
	err := CaptureBody(func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		seen = string(raw)

		return err
	})(c)

	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@x.io"}`, seen)
	assert.Equal(t, map[string]any{"email": "a@x.io"}, CapturedBody(c))
}

func TestCaptureBody_NoBody(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	require.NoError(t, CaptureBody(func(echo.Context) error { return nil })(c))
	assert.Nil(t, CapturedBody(c))
}

func TestRedactBody(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "json password redacted",
			raw:  `{"email":"a@x.io","Password":"secret1"}`,
			want: map[string]any{"email": "a@x.io", "Password": redactedValue},
		},
		{
			name: "plain text kept",
			raw:  "hello",
			want: "hello",
		},
		{
			name: "unparsed text mentioning password dropped",
			raw:  "password=secret1&email=a",
			want: "[unparsed body with sensitive fields]",
		},
		{
			name: "long text truncated",
			raw:  strings.Repeat("a", maxUnparsedBytes+10),
			want: strings.Repeat("a", maxUnparsedBytes) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactBody([]byte(tt.raw)))
		})
	}
}
