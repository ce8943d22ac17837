package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// CycleStatusDraft is the initial state; assignments may be built up.
	CycleStatusDraft = "DRAFT"
	// CycleStatusActive gates all evaluation mutations.
	CycleStatusActive = "ACTIVE"
	// CycleStatusClosed freezes the cycle after the review period ends.
	CycleStatusClosed = "CLOSED"
	// CycleStatusArchived keeps old cycles out of default listings.
	CycleStatusArchived = "ARCHIVED"
)

// ReviewCycle is the time-boxed review period that scopes assignments,
// evaluations and the form template they are validated against.
type ReviewCycle struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"size:200;not null" json:"name"`
	StartDate       *time.Time `gorm:"type:date" json:"start_date"`
	EndDate         *time.Time `gorm:"type:date" json:"end_date"`
	Status          string     `gorm:"size:20;not null;default:DRAFT;check:status IN ('DRAFT','ACTIVE','CLOSED','ARCHIVED')" json:"status"`
	CreatedByUserID uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_user_id"`
	FormTemplateID  *uuid.UUID `gorm:"type:uuid" json:"form_template_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (c *ReviewCycle) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether evaluations may currently be mutated.
func (c ReviewCycle) IsActive() bool {
	return c.Status == CycleStatusActive
}
