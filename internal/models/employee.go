package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is an HR identity. The optional user link connects it to a
// login account; reviewer/approver access checks resolve through it.
type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeNumber string     `gorm:"size:50;uniqueIndex;not null" json:"employee_number"`
	DisplayName    string     `gorm:"size:200;not null" json:"display_name"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
