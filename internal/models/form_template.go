package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormTemplate is a versioned collection of field definitions a cycle
// can point at. Inactive templates refuse schema resolution.
type FormTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex:uq_form_templates_name_version" json:"name"`
	Version     int       `gorm:"not null;default:1;uniqueIndex:uq_form_templates_name_version" json:"version"`
	Description *string   `gorm:"size:500" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Fields []FormTemplateField `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (f *FormTemplate) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FormTemplateField attaches a field definition to a template with a
// display position and optional per-form overrides. Nil override means
// "use the base definition's value".
type FormTemplateField struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FormTemplateID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_form_field;uniqueIndex:uq_form_position" json:"form_template_id"`
	FieldDefinitionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_form_field" json:"field_definition_id"`
	Position          int       `gorm:"not null;uniqueIndex:uq_form_position" json:"position"`
	OverrideLabel     *string   `gorm:"size:200" json:"override_label"`
	OverrideRequired  *bool     `json:"override_required"`
	CreatedAt         time.Time `json:"created_at"`

	Field FieldDefinition `gorm:"foreignKey:FieldDefinitionID" json:"field"`
}

func (f *FormTemplateField) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
