package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssignmentStatusActive   = "ACTIVE"
	AssignmentStatusInactive = "INACTIVE"
)

// ReviewAssignment is the (reviewer, subject, approver) triple that
// scopes exactly one evaluation within a cycle.
type ReviewAssignment struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CycleID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_cycle_reviewer_subject" json:"cycle_id"`
	ReviewerEmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_cycle_reviewer_subject" json:"reviewer_employee_id"`
	SubjectEmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_cycle_reviewer_subject" json:"subject_employee_id"`
	ApproverEmployeeID uuid.UUID `gorm:"type:uuid;not null" json:"approver_employee_id"`
	Status             string    `gorm:"size:20;not null;default:ACTIVE;check:status IN ('ACTIVE','INACTIVE')" json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

func (a *ReviewAssignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
