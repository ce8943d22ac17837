package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions recorded by the services. One event per first
// application of a state change; idempotent re-entries append nothing.
const (
	AuditEvaluationCreated    = "EVALUATION_CREATED"
	AuditEvaluationDraftSaved = "EVALUATION_DRAFT_SAVED"
	AuditEvaluationSubmitted  = "EVALUATION_SUBMITTED"
	AuditEvaluationReturned   = "EVALUATION_RETURNED"
	AuditEvaluationApproved   = "EVALUATION_APPROVED"
	AuditCycleCreated         = "CYCLE_CREATED"
	AuditCycleUpdated         = "CYCLE_UPDATED"
	AuditCycleActivated       = "CYCLE_ACTIVATED"
	AuditCycleClosed          = "CYCLE_CLOSED"
	AuditAssignmentsCreated   = "ASSIGNMENTS_CREATED"
	AuditFieldDefCreated      = "FIELD_DEFINITION_CREATED"
	AuditFormCreated          = "FORM_TEMPLATE_CREATED"
	AuditFormFieldsUpdated    = "FORM_TEMPLATE_FIELDS_UPDATED"
)

// AuditEvent is an immutable trail entry.
type AuditEvent struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ActorUserID *uuid.UUID        `gorm:"type:uuid;index" json:"actor_user_id"`
	Action      string            `gorm:"size:50;not null;index" json:"action"`
	EntityType  string            `gorm:"size:50;not null;index:ix_audit_entity" json:"entity_type"`
	EntityID    uuid.UUID         `gorm:"type:uuid;not null;index:ix_audit_entity" json:"entity_id"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (e *AuditEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
