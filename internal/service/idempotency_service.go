package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/observability"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

// IdempotencyService coordinates safe retries of non-idempotent
// mutating requests. Begin runs before the business transaction and
// commits on its own; Complete joins the business transaction so the
// cached response and the mutation land atomically; Fail runs in a
// fresh transaction after the business rollback so the key becomes
// retryable.
type IdempotencyService interface {
	Begin(ctx context.Context, userID uuid.UUID, key, method, route string, payload interface{}) (models.IdempotencyKey, error)
	Complete(ctx context.Context, tx *gorm.DB, record *models.IdempotencyKey, responseCode int, responseBody interface{}) error
	Fail(ctx context.Context, record *models.IdempotencyKey) error
}

type idempotencyService struct {
	records   repository.IdempotencyRepository
	retention time.Duration
	logger    zerolog.Logger
}

// NewIdempotencyService builds the coordinator. A zero retention keeps
// completed records forever.
func NewIdempotencyService(records repository.IdempotencyRepository, retention time.Duration, logger zerolog.Logger) IdempotencyService {
	return &idempotencyService{
		records:   records,
		retention: retention,
		logger:    logger.With().Str("component", "idempotency_service").Logger(),
	}
}

// hashPayload produces a stable fingerprint of the normalized request
// payload. Struct marshaling fixes the field order; callers pre-sort
// list fields so reordering does not read as a different request.
func hashPayload(payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (s *idempotencyService) Begin(ctx context.Context, userID uuid.UUID, key, method, route string, payload interface{}) (models.IdempotencyKey, error) {
	requestHash := ""
	if payload != nil {
		hash, err := hashPayload(payload)
		if err != nil {
			return models.IdempotencyKey{}, err
		}
		requestHash = hash
	}

	existing, err := s.records.FindByUserKey(ctx, userID, key)
	if err == nil {
		return s.resume(ctx, existing, requestHash)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.IdempotencyKey{}, err
	}

	record := models.IdempotencyKey{
		UserID:      userID,
		Key:         key,
		Method:      method,
		Route:       route,
		RequestHash: requestHash,
		Status:      models.IdempotencyStatusInProgress,
	}
	if err := s.records.Create(ctx, &record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the first-insert race; the winner's record is authoritative.
			return s.resumeAfterRace(ctx, userID, key, requestHash)
		}
		return models.IdempotencyKey{}, err
	}

	observability.IdempotencyOutcomes().WithLabelValues("new").Inc()
	return record, nil
}

func (s *idempotencyService) resume(ctx context.Context, existing models.IdempotencyKey, requestHash string) (models.IdempotencyKey, error) {
	if existing.RequestHash != "" && requestHash != "" && existing.RequestHash != requestHash {
		observability.IdempotencyOutcomes().WithLabelValues("payload_conflict").Inc()
		return models.IdempotencyKey{}, ErrIdempotencyKeyReuse
	}

	switch existing.Status {
	case models.IdempotencyStatusCompleted:
		observability.IdempotencyOutcomes().WithLabelValues("replay").Inc()
		return existing, nil

	case models.IdempotencyStatusInProgress:
		observability.IdempotencyOutcomes().WithLabelValues("in_flight").Inc()
		return models.IdempotencyKey{}, ErrIdempotencyInFlight

	default: // FAILED: allow the retry under the same key.
		existing.Status = models.IdempotencyStatusInProgress
		if err := s.records.Update(ctx, &existing); err != nil {
			return models.IdempotencyKey{}, err
		}
		observability.IdempotencyOutcomes().WithLabelValues("retry").Inc()
		return existing, nil
	}
}

func (s *idempotencyService) resumeAfterRace(ctx context.Context, userID uuid.UUID, key, requestHash string) (models.IdempotencyKey, error) {
	winner, err := s.records.FindByUserKey(ctx, userID, key)
	if err != nil {
		return models.IdempotencyKey{}, err
	}
	if winner.RequestHash != "" && requestHash != "" && winner.RequestHash != requestHash {
		return models.IdempotencyKey{}, ErrIdempotencyKeyReuse
	}
	if winner.Status == models.IdempotencyStatusCompleted {
		observability.IdempotencyOutcomes().WithLabelValues("replay").Inc()
		return winner, nil
	}
	observability.IdempotencyOutcomes().WithLabelValues("in_flight").Inc()
	return models.IdempotencyKey{}, ErrIdempotencyInFlight
}

func (s *idempotencyService) Complete(ctx context.Context, tx *gorm.DB, record *models.IdempotencyKey, responseCode int, responseBody interface{}) error {
	body, err := json.Marshal(responseBody)
	if err != nil {
		return err
	}

	record.Status = models.IdempotencyStatusCompleted
	record.ResponseCode = &responseCode
	record.ResponseBody = datatypes.JSON(body)
	if s.retention > 0 {
		expiry := time.Now().UTC().Add(s.retention)
		record.ExpiresAt = &expiry
	}

	records := s.records
	if tx != nil {
		records = s.records.WithTx(tx)
	}
	return records.Update(ctx, record)
}

func (s *idempotencyService) Fail(ctx context.Context, record *models.IdempotencyKey) error {
	record.Status = models.IdempotencyStatusFailed
	if err := s.records.Update(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("key", record.Key).Msg("failed to mark idempotency record FAILED")
		return err
	}
	return nil
}
