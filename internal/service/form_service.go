package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// ruleSchemas validates the rules object a field definition may carry,
// one JSON schema per field type. Unknown rule keys are rejected so a
// typo like "max_lenght" fails loudly at definition time instead of
// silently never validating anything.
var ruleSchemas = func() map[string]*jsonschema.Schema {
	sources := map[string]string{
		models.FieldTypeText: `{
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"max_length": {"type": "integer", "minimum": 1}
			}
		}`,
		models.FieldTypeNumber: `{
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"min": {"type": "number"},
				"max": {"type": "number"},
				"integer": {"type": "boolean"}
			}
		}`,
		models.FieldTypeSelect: `{
			"type": "object",
			"additionalProperties": false,
			"required": ["choices"],
			"properties": {
				"choices": {
					"type": "array",
					"minItems": 1,
					"items": {"type": "string"}
				}
			}
		}`,
		models.FieldTypeEmployeeReference: `{
			"type": "object",
			"additionalProperties": false
		}`,
		models.FieldTypeDate: `{
			"type": "object",
			"additionalProperties": false
		}`,
	}

	compiled := make(map[string]*jsonschema.Schema, len(sources))
	for fieldType, source := range sources {
		compiled[fieldType] = jsonschema.MustCompileString(fieldType+"_rules.json", source)
	}
	return compiled
}()

// FormService manages field definitions and form templates.
type FormService interface {
	CreateFieldDefinition(ctx context.Context, actor Actor, req dto.FieldDefinitionCreateRequest) (dto.FieldDefinitionResponse, error)
	ListFieldDefinitions(ctx context.Context) ([]dto.FieldDefinitionResponse, error)
	CreateTemplate(ctx context.Context, actor Actor, req dto.FormTemplateCreateRequest) (dto.FormTemplateResponse, error)
	ListTemplates(ctx context.Context) ([]dto.FormTemplateResponse, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (dto.FormTemplateDetailResponse, error)
	AttachFields(ctx context.Context, actor Actor, formTemplateID uuid.UUID, req []dto.FormFieldAttachRequest) (dto.FormTemplateDetailResponse, error)
}

type formService struct {
	db        *gorm.DB
	forms     repository.FormRepository
	schema    FormSchemaService
	audit     AuditService
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFormService builds the form management service.
func NewFormService(db *gorm.DB, forms repository.FormRepository, schema FormSchemaService, audit AuditService, logger zerolog.Logger) FormService {
	return &formService{
		db:        db,
		forms:     forms,
		schema:    schema,
		audit:     audit,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "form_service").Logger(),
	}
}

// validateRules checks a rules object against the per-type schema and
// re-parses it into a FieldRule so definitions that pass validation are
// guaranteed usable by the resolver later.
func validateRules(fieldType string, rules map[string]interface{}) []utils.FieldError {
	schema, ok := ruleSchemas[fieldType]
	if !ok {
		return []utils.FieldError{{Field: "field_type", Code: "unknown_type", Message: "Unknown field type " + fieldType}}
	}
	if rules == nil {
		rules = map[string]interface{}{}
	}

	// Round-trip through JSON so values carry the types the schema
	// compiler expects, whatever the handler decoded them into.
	raw, err := json.Marshal(rules)
	if err != nil {
		return []utils.FieldError{{Field: "rules", Code: "invalid_rules", Message: "Rules are not serializable"}}
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return []utils.FieldError{{Field: "rules", Code: "invalid_rules", Message: "Rules are not valid JSON"}}
	}
	if err := schema.Validate(decoded); err != nil {
		return []utils.FieldError{{Field: "rules", Code: "invalid_rules", Message: err.Error()}}
	}
	if _, err := parseFieldRule(fieldType, rules); err != nil {
		return []utils.FieldError{{Field: "rules", Code: "invalid_rules", Message: err.Error()}}
	}
	return nil
}

func (s *formService) CreateFieldDefinition(ctx context.Context, actor Actor, req dto.FieldDefinitionCreateRequest) (dto.FieldDefinitionResponse, error) {
	if fieldErrors := validateRules(req.FieldType, req.Rules); len(fieldErrors) > 0 {
		return dto.FieldDefinitionResponse{}, &ValidationError{Message: "Field definition validation failed", Errors: fieldErrors}
	}

	field := models.FieldDefinition{
		Key:       req.Key,
		Label:     s.sanitizer.Sanitize(req.Label),
		FieldType: req.FieldType,
		Required:  req.Required,
		Rules:     datatypes.JSONMap(req.Rules),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.forms.WithTx(tx).CreateFieldDefinition(ctx, &field); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntity
			}
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, models.AuditFieldDefCreated, "field_definition", field.ID, map[string]interface{}{
			"key":        field.Key,
			"field_type": field.FieldType,
		})
	})
	if err != nil {
		return dto.FieldDefinitionResponse{}, err
	}

	s.logger.Info().Str("key", field.Key).Str("field_type", field.FieldType).Msg("field definition created")
	return dto.NewFieldDefinitionResponse(field), nil
}

func (s *formService) ListFieldDefinitions(ctx context.Context) ([]dto.FieldDefinitionResponse, error) {
	fields, err := s.forms.ListFieldDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FieldDefinitionResponse, 0, len(fields))
	for _, field := range fields {
		out = append(out, dto.NewFieldDefinitionResponse(field))
	}
	return out, nil
}

func (s *formService) CreateTemplate(ctx context.Context, actor Actor, req dto.FormTemplateCreateRequest) (dto.FormTemplateResponse, error) {
	version := req.Version
	if version == 0 {
		version = 1
	}
	form := models.FormTemplate{
		Name:        s.sanitizer.Sanitize(req.Name),
		Version:     version,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.forms.WithTx(tx).CreateTemplate(ctx, &form); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntity
			}
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, models.AuditFormCreated, "form_template", form.ID, map[string]interface{}{
			"name":    form.Name,
			"version": form.Version,
		})
	})
	if err != nil {
		return dto.FormTemplateResponse{}, err
	}
	return dto.NewFormTemplateResponse(form), nil
}

func (s *formService) ListTemplates(ctx context.Context) ([]dto.FormTemplateResponse, error) {
	forms, err := s.forms.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FormTemplateResponse, 0, len(forms))
	for _, form := range forms {
		out = append(out, dto.NewFormTemplateResponse(form))
	}
	return out, nil
}

func (s *formService) GetTemplate(ctx context.Context, id uuid.UUID) (dto.FormTemplateDetailResponse, error) {
	form, err := s.forms.GetTemplate(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.FormTemplateDetailResponse{}, ErrFormNotFound
		}
		return dto.FormTemplateDetailResponse{}, err
	}
	return s.templateDetail(ctx, s.forms, form)
}

func (s *formService) templateDetail(ctx context.Context, forms repository.FormRepository, form models.FormTemplate) (dto.FormTemplateDetailResponse, error) {
	fields, err := forms.ListTemplateFields(ctx, form.ID)
	if err != nil {
		return dto.FormTemplateDetailResponse{}, err
	}
	detail := dto.FormTemplateDetailResponse{
		FormTemplateResponse: dto.NewFormTemplateResponse(form),
		Fields:               make([]dto.FormFieldResponse, 0, len(fields)),
	}
	for _, field := range fields {
		detail.Fields = append(detail.Fields, dto.NewFormFieldResponse(field))
	}
	return detail, nil
}

// AttachFields upserts the given attachments onto the template.
// Existing attachments for the same definition are repositioned and
// re-overridden in place.
func (s *formService) AttachFields(ctx context.Context, actor Actor, formTemplateID uuid.UUID, req []dto.FormFieldAttachRequest) (dto.FormTemplateDetailResponse, error) {
	form, err := s.forms.GetTemplate(ctx, formTemplateID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.FormTemplateDetailResponse{}, ErrFormNotFound
		}
		return dto.FormTemplateDetailResponse{}, err
	}

	var detail dto.FormTemplateDetailResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		forms := s.forms.WithTx(tx)

		for _, entry := range req {
			fieldDefinitionID, err := uuid.Parse(entry.FieldDefinitionID)
			if err != nil {
				return ErrFieldDefNotFound
			}
			if _, err := forms.GetFieldDefinition(ctx, fieldDefinitionID); err != nil {
				if repository.IsNotFound(err) {
					return ErrFieldDefNotFound
				}
				return err
			}

			attachment, err := forms.FindTemplateField(ctx, form.ID, fieldDefinitionID)
			if err != nil {
				if !repository.IsNotFound(err) {
					return err
				}
				attachment = models.FormTemplateField{
					FormTemplateID:    form.ID,
					FieldDefinitionID: fieldDefinitionID,
				}
			}
			attachment.Position = entry.Position
			attachment.OverrideLabel = entry.OverrideLabel
			attachment.OverrideRequired = entry.OverrideRequired
			if err := forms.SaveTemplateField(ctx, &attachment); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateEntity
				}
				return err
			}
		}

		if err := s.audit.Record(ctx, tx, &actor.UserID, models.AuditFormFieldsUpdated, "form_template", form.ID, map[string]interface{}{
			"field_count": len(req),
		}); err != nil {
			return err
		}

		detail, err = s.templateDetail(ctx, forms, form)
		return err
	})
	if err != nil {
		return dto.FormTemplateDetailResponse{}, err
	}

	// Any cached schema built from this template is now stale.
	s.schema.Invalidate(ctx, form.ID)
	return detail, nil
}
