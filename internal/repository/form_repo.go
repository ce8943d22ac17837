package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// FormRepository defines persistence operations for field definitions
// and form templates.
type FormRepository interface {
	CreateFieldDefinition(ctx context.Context, field *models.FieldDefinition) error
	ListFieldDefinitions(ctx context.Context) ([]models.FieldDefinition, error)
	GetFieldDefinition(ctx context.Context, id uuid.UUID) (models.FieldDefinition, error)

	CreateTemplate(ctx context.Context, form *models.FormTemplate) error
	ListTemplates(ctx context.Context) ([]models.FormTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (models.FormTemplate, error)
	UpdateTemplate(ctx context.Context, form *models.FormTemplate) error
	// ListTemplateFields returns the attached fields ordered by position
	// with their base definitions preloaded.
	ListTemplateFields(ctx context.Context, formTemplateID uuid.UUID) ([]models.FormTemplateField, error)
	FindTemplateField(ctx context.Context, formTemplateID, fieldDefinitionID uuid.UUID) (models.FormTemplateField, error)
	SaveTemplateField(ctx context.Context, field *models.FormTemplateField) error
	WithTx(tx *gorm.DB) FormRepository
}

type formRepository struct {
	db *gorm.DB
}

// NewFormRepository instantiates a GORM-backed repository.
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) WithTx(tx *gorm.DB) FormRepository {
	return &formRepository{db: tx}
}

func (r *formRepository) CreateFieldDefinition(ctx context.Context, field *models.FieldDefinition) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *formRepository) ListFieldDefinitions(ctx context.Context) ([]models.FieldDefinition, error) {
	var fields []models.FieldDefinition
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *formRepository) GetFieldDefinition(ctx context.Context, id uuid.UUID) (models.FieldDefinition, error) {
	var field models.FieldDefinition
	if err := r.db.WithContext(ctx).First(&field, "id = ?", id).Error; err != nil {
		return models.FieldDefinition{}, err
	}
	return field, nil
}

func (r *formRepository) CreateTemplate(ctx context.Context, form *models.FormTemplate) error {
	return r.db.WithContext(ctx).Create(form).Error
}

func (r *formRepository) ListTemplates(ctx context.Context) ([]models.FormTemplate, error) {
	var forms []models.FormTemplate
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *formRepository) GetTemplate(ctx context.Context, id uuid.UUID) (models.FormTemplate, error) {
	var form models.FormTemplate
	if err := r.db.WithContext(ctx).First(&form, "id = ?", id).Error; err != nil {
		return models.FormTemplate{}, err
	}
	return form, nil
}

func (r *formRepository) UpdateTemplate(ctx context.Context, form *models.FormTemplate) error {
	return r.db.WithContext(ctx).Save(form).Error
}

func (r *formRepository) ListTemplateFields(ctx context.Context, formTemplateID uuid.UUID) ([]models.FormTemplateField, error) {
	var fields []models.FormTemplateField
	if err := r.db.WithContext(ctx).
		Preload("Field").
		Where("form_template_id = ?", formTemplateID).
		Order("position ASC").
		Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *formRepository) FindTemplateField(ctx context.Context, formTemplateID, fieldDefinitionID uuid.UUID) (models.FormTemplateField, error) {
	var field models.FormTemplateField
	err := r.db.WithContext(ctx).
		First(&field, "form_template_id = ? AND field_definition_id = ?", formTemplateID, fieldDefinitionID).Error
	if err != nil {
		return models.FormTemplateField{}, err
	}
	return field, nil
}

func (r *formRepository) SaveTemplateField(ctx context.Context, field *models.FormTemplateField) error {
	return r.db.WithContext(ctx).Save(field).Error
}

// IsNotFound reports whether err is the repository's not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
