package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

const auditSubject = "revu.audit.events"

// AuditService appends immutable trail events and serves the admin
// listing. Appends join the caller's transaction; the NATS publication
// is fire-and-forget and never fails the caller.
type AuditService interface {
	Record(ctx context.Context, tx *gorm.DB, actorUserID *uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) error
	// PublishRecorded pushes the event to the audit stream after the
	// owning transaction committed.
	PublishRecorded(action string, entityID uuid.UUID, metadata map[string]interface{})
	List(ctx context.Context, filter repository.AuditFilter) ([]dto.AuditEventResponse, error)
}

type auditService struct {
	events repository.AuditRepository
	nats   *nats.Conn
	logger zerolog.Logger
}

// NewAuditService builds the recorder. A nil NATS connection disables streaming.
func NewAuditService(events repository.AuditRepository, natsConn *nats.Conn, logger zerolog.Logger) AuditService {
	return &auditService{
		events: events,
		nats:   natsConn,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, actorUserID *uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]interface{}) error {
	events := s.events
	if tx != nil {
		events = s.events.WithTx(tx)
	}
	return events.Append(ctx, &models.AuditEvent{
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    datatypes.JSONMap(metadata),
	})
}

func (s *auditService) PublishRecorded(action string, entityID uuid.UUID, metadata map[string]interface{}) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"action":    action,
		"entity_id": entityID.String(),
		"metadata":  metadata,
	})
	if err != nil {
		return
	}
	if err := s.nats.Publish(auditSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit event publication failed")
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) ([]dto.AuditEventResponse, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewAuditEventResponseSlice(events), nil
}
