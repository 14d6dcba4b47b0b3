package postgres

import (
	"context"
	"testing"
	"time"

	"emuss/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_RecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	occurred := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	record := &entity.AuditRecord{
		EventID:    "7f1c5a2e-4c1b-4c43-9a49-6d7cf0b2b001",
		Type:       entity.UserEventRegistered,
		UserID:     42,
		Email:      "a@x.io",
		RequestID:  "req-1",
		OccurredAt: occurred,
		ReceivedAt: occurred.Add(time.Second),
	}

	inserted, err := repo.Record(ctx, record)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Record(ctx, record)
	require.NoError(t, err)
	assert.False(t, inserted)

	records, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.EventID, records[0].EventID)
	assert.Equal(t, entity.UserEventRegistered, records[0].Type)
	assert.Equal(t, "req-1", records[0].RequestID)
	assert.True(t, occurred.Equal(records[0].OccurredAt))
}

func TestAuditRepository_ListByUserOrdersByOccurrence(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []*entity.AuditRecord{
		{EventID: "b", Type: entity.UserEventUpdated, UserID: 1, OccurredAt: base.Add(2 * time.Minute), ReceivedAt: base},
		{EventID: "a", Type: entity.UserEventRegistered, UserID: 1, OccurredAt: base, ReceivedAt: base},
		{EventID: "c", Type: entity.UserEventRegistered, UserID: 2, OccurredAt: base, ReceivedAt: base},
	}
	for _, event := range events {
		_, err := repo.Record(ctx, event)
		require.NoError(t, err)
	}

	records, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].EventID)
	assert.Equal(t, "b", records[1].EventID)

	records, err = repo.ListByUser(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuditRepository_RecordNil(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))

	inserted, err := repo.Record(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, inserted)
}
