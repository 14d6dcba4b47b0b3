package impl

import (
	"io"
	"log/slog"
	"time"

	"emuss/internal/domain/entity"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestUser(id int64, email string) *entity.User {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	return &entity.User{
		ID:        id,
		Email:     email,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
