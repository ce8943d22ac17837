package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

type idempotencyPayload struct {
	EvaluationID string `json:"evaluation_id"`
	IfMatch      int    `json:"if_match"`
}

func TestIdempotencyBeginCreatesInProgressRecord(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	userID := uuid.New()
	record, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", idempotencyPayload{"e1", 1})
	require.NoError(t, err)
	require.Equal(t, models.IdempotencyStatusInProgress, record.Status)
	require.NotEmpty(t, record.RequestHash)
}

func TestIdempotencyCompletedReplaysResponse(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	userID := uuid.New()
	payload := idempotencyPayload{"e1", 2}

	record, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.NoError(t, err)
	require.NoError(t, service.Complete(context.Background(), db, &record, 200, map[string]string{"status": "SUBMITTED"}))

	replayed, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.NoError(t, err)
	require.Equal(t, models.IdempotencyStatusCompleted, replayed.Status)
	require.NotNil(t, replayed.ResponseCode)
	require.Equal(t, 200, *replayed.ResponseCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(replayed.ResponseBody, &body))
	require.Equal(t, "SUBMITTED", body["status"])
}

func TestIdempotencyPayloadMismatchRejected(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	userID := uuid.New()
	record, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", idempotencyPayload{"e1", 2})
	require.NoError(t, err)
	require.NoError(t, service.Complete(context.Background(), db, &record, 200, "ok"))

	_, err = service.Begin(context.Background(), userID, "key-1", "POST", "/route", idempotencyPayload{"e1", 3})
	require.ErrorIs(t, err, ErrIdempotencyKeyReuse)
}

func TestIdempotencyInFlightRejected(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	userID := uuid.New()
	payload := idempotencyPayload{"e1", 1}
	_, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.NoError(t, err)

	_, err = service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.ErrorIs(t, err, ErrIdempotencyInFlight)
}

func TestIdempotencyFailedAllowsRetry(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	userID := uuid.New()
	payload := idempotencyPayload{"e1", 1}
	record, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.NoError(t, err)
	require.NoError(t, service.Fail(context.Background(), &record))

	retried, err := service.Begin(context.Background(), userID, "key-1", "POST", "/route", payload)
	require.NoError(t, err)
	require.Equal(t, models.IdempotencyStatusInProgress, retried.Status)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	payload := idempotencyPayload{"e1", 1}
	_, err := service.Begin(context.Background(), uuid.New(), "shared-key", "POST", "/route", payload)
	require.NoError(t, err)

	// A different user reusing the same key string is a fresh request.
	record, err := service.Begin(context.Background(), uuid.New(), "shared-key", "POST", "/route", payload)
	require.NoError(t, err)
	require.Equal(t, models.IdempotencyStatusInProgress, record.Status)
}

func TestIdempotencyCompleteStampsExpiry(t *testing.T) {
	db := newTestDB(t)
	service := NewIdempotencyService(repository.NewIdempotencyRepository(db), time.Hour, zerolog.Nop())

	record, err := service.Begin(context.Background(), uuid.New(), "key-1", "POST", "/route", idempotencyPayload{"e1", 1})
	require.NoError(t, err)
	require.NoError(t, service.Complete(context.Background(), db, &record, 201, "ok"))

	var stored models.IdempotencyKey
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	require.Equal(t, models.IdempotencyStatusCompleted, stored.Status)
	require.NotNil(t, stored.ExpiresAt)
	require.True(t, stored.ExpiresAt.After(time.Now()))
}
