package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	FieldTypeText              = "text"
	FieldTypeNumber            = "number"
	FieldTypeSelect            = "select"
	FieldTypeEmployeeReference = "employee_reference"
	FieldTypeDate              = "date"
)

// FieldDefinition is a reusable question. Key doubles as the
// question_key stored on evaluation responses. Rules examples:
//
//	number: {"min":1,"max":5,"integer":true}
//	select: {"choices":["Meets","Exceeds"]}
//	text:   {"max_length":2000}
type FieldDefinition struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string            `gorm:"size:120;uniqueIndex;not null" json:"key"`
	Label     string            `gorm:"size:200;not null" json:"label"`
	FieldType string            `gorm:"size:40;not null;check:field_type IN ('text','number','select','employee_reference','date')" json:"field_type"`
	Required  bool              `gorm:"not null;default:false" json:"required"`
	Rules     datatypes.JSONMap `gorm:"type:json" json:"rules"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (f *FieldDefinition) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
