package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// EvaluationStatusDraft is the initial status; the reviewer edits responses.
	EvaluationStatusDraft = "DRAFT"
	// EvaluationStatusSubmitted means the reviewer handed the evaluation to the approver.
	EvaluationStatusSubmitted = "SUBMITTED"
	// EvaluationStatusApproved is terminal.
	EvaluationStatusApproved = "APPROVED"
	// EvaluationStatusReturned means the approver sent it back; terminal in this design.
	EvaluationStatusReturned = "RETURNED"
)

// Evaluation is the one reviewable artifact per assignment. Version is
// the optimistic-lock token: it starts at 1 and every successful
// mutation (including response upserts) bumps it by exactly one.
type Evaluation struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CycleID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"cycle_id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_evaluations_assignment" json:"assignment_id"`
	Status       string     `gorm:"size:20;not null;default:DRAFT;check:status IN ('DRAFT','SUBMITTED','APPROVED','RETURNED')" json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ApprovedAt   *time.Time `json:"approved_at"`
	Version      int        `gorm:"not null;default:1;check:version >= 1" json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (e *Evaluation) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	return nil
}
