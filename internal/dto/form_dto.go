package dto

import (
	"time"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// FieldDefinitionCreateRequest creates a reusable question definition.
type FieldDefinitionCreateRequest struct {
	Key       string                 `json:"key" validate:"required,min=1,max=120"`
	Label     string                 `json:"label" validate:"required,min=1,max=200"`
	FieldType string                 `json:"field_type" validate:"required,oneof=text number select employee_reference date"`
	Required  bool                   `json:"required"`
	Rules     map[string]interface{} `json:"rules"`
}

// FieldDefinitionResponse is the wire form of a field definition.
type FieldDefinitionResponse struct {
	ID        string                 `json:"id"`
	Key       string                 `json:"key"`
	Label     string                 `json:"label"`
	FieldType string                 `json:"field_type"`
	Required  bool                   `json:"required"`
	Rules     map[string]interface{} `json:"rules"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// FormTemplateCreateRequest creates a versioned form template.
type FormTemplateCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Version     int     `json:"version" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// FormFieldAttachRequest attaches one field definition to a template.
type FormFieldAttachRequest struct {
	FieldDefinitionID string  `json:"field_definition_id" validate:"required,uuid4"`
	Position          int     `json:"position" validate:"min=0"`
	OverrideLabel     *string `json:"override_label" validate:"omitempty,max=200"`
	OverrideRequired  *bool   `json:"override_required"`
}

// FormTemplateResponse is the wire form of a form template.
type FormTemplateResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FormFieldResponse is one attached field with overrides applied.
type FormFieldResponse struct {
	Position          int                    `json:"position"`
	FieldDefinitionID string                 `json:"field_definition_id"`
	Key               string                 `json:"key"`
	Label             string                 `json:"label"`
	FieldType         string                 `json:"field_type"`
	Required          bool                   `json:"required"`
	Rules             map[string]interface{} `json:"rules"`
}

// FormTemplateDetailResponse is a template with its ordered fields.
type FormTemplateDetailResponse struct {
	FormTemplateResponse
	Fields []FormFieldResponse `json:"fields"`
}

// NewFieldDefinitionResponse maps a model to its wire form.
func NewFieldDefinitionResponse(f models.FieldDefinition) FieldDefinitionResponse {
	return FieldDefinitionResponse{
		ID:        f.ID.String(),
		Key:       f.Key,
		Label:     f.Label,
		FieldType: f.FieldType,
		Required:  f.Required,
		Rules:     f.Rules,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// NewFormTemplateResponse maps a model to its wire form.
func NewFormTemplateResponse(f models.FormTemplate) FormTemplateResponse {
	return FormTemplateResponse{
		ID:          f.ID.String(),
		Name:        f.Name,
		Version:     f.Version,
		Description: f.Description,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// NewFormFieldResponse maps an attached field, merging overrides onto
// the base definition.
func NewFormFieldResponse(f models.FormTemplateField) FormFieldResponse {
	label := f.Field.Label
	if f.OverrideLabel != nil {
		label = *f.OverrideLabel
	}
	required := f.Field.Required
	if f.OverrideRequired != nil {
		required = *f.OverrideRequired
	}
	return FormFieldResponse{
		Position:          f.Position,
		FieldDefinitionID: f.FieldDefinitionID.String(),
		Key:               f.Field.Key,
		Label:             label,
		FieldType:         f.Field.FieldType,
		Required:          required,
		Rules:             f.Field.Rules,
	}
}
