package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

func newFormService(t *testing.T) (FormService, Actor) {
	t.Helper()
	db := newTestDB(t)

	user := models.User{Email: "admin@revu.test", FullName: "Admin", IsAdmin: true}
	require.NoError(t, db.Create(&user).Error)

	formRepo := repository.NewFormRepository(db)
	audit := NewAuditService(repository.NewAuditRepository(db), nil, zerolog.Nop())
	schema := NewFormSchemaService(formRepo, nil, time.Minute, zerolog.Nop())

	return NewFormService(db, formRepo, schema, audit, zerolog.Nop()), Actor{UserID: user.ID}
}

func TestCreateFieldDefinitionValidatesRules(t *testing.T) {
	service, actor := newFormService(t)
	ctx := context.Background()

	field, err := service.CreateFieldDefinition(ctx, actor, dto.FieldDefinitionCreateRequest{
		Key: "overall_rating", Label: "Overall rating", FieldType: models.FieldTypeNumber, Required: true,
		Rules: map[string]interface{}{"min": 1, "max": 5, "integer": true},
	})
	require.NoError(t, err)
	require.Equal(t, "overall_rating", field.Key)

	// Unknown rule keys for the declared type are rejected.
	_, err = service.CreateFieldDefinition(ctx, actor, dto.FieldDefinitionCreateRequest{
		Key: "strengths", Label: "Strengths", FieldType: models.FieldTypeText,
		Rules: map[string]interface{}{"max_lenght": 100},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "invalid_rules", validationErr.Errors[0].Code)

	// A select without choices is unusable.
	_, err = service.CreateFieldDefinition(ctx, actor, dto.FieldDefinitionCreateRequest{
		Key: "readiness", Label: "Readiness", FieldType: models.FieldTypeSelect,
		Rules: map[string]interface{}{},
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateFieldDefinitionRejectsDuplicateKey(t *testing.T) {
	service, actor := newFormService(t)
	ctx := context.Background()

	req := dto.FieldDefinitionCreateRequest{
		Key: "overall_rating", Label: "Overall rating", FieldType: models.FieldTypeNumber,
		Rules: map[string]interface{}{"min": 1, "max": 5},
	}
	_, err := service.CreateFieldDefinition(ctx, actor, req)
	require.NoError(t, err)

	_, err = service.CreateFieldDefinition(ctx, actor, req)
	require.ErrorIs(t, err, ErrDuplicateEntity)
}

func TestCreateTemplateRejectsDuplicateNameVersion(t *testing.T) {
	service, actor := newFormService(t)
	ctx := context.Background()

	req := dto.FormTemplateCreateRequest{Name: "Annual review", Version: 1}
	_, err := service.CreateTemplate(ctx, actor, req)
	require.NoError(t, err)

	_, err = service.CreateTemplate(ctx, actor, req)
	require.ErrorIs(t, err, ErrDuplicateEntity)

	// Same name, next version is fine.
	_, err = service.CreateTemplate(ctx, actor, dto.FormTemplateCreateRequest{Name: "Annual review", Version: 2})
	require.NoError(t, err)
}

func TestAttachFieldsBuildsOrderedDetail(t *testing.T) {
	service, actor := newFormService(t)
	ctx := context.Background()

	rating, err := service.CreateFieldDefinition(ctx, actor, dto.FieldDefinitionCreateRequest{
		Key: "overall_rating", Label: "Overall rating", FieldType: models.FieldTypeNumber, Required: true,
		Rules: map[string]interface{}{"min": 1, "max": 5, "integer": true},
	})
	require.NoError(t, err)
	strengths, err := service.CreateFieldDefinition(ctx, actor, dto.FieldDefinitionCreateRequest{
		Key: "strengths", Label: "Strengths", FieldType: models.FieldTypeText,
		Rules: map[string]interface{}{"max_length": 2000},
	})
	require.NoError(t, err)

	form, err := service.CreateTemplate(ctx, actor, dto.FormTemplateCreateRequest{Name: "Annual review"})
	require.NoError(t, err)
	formID := uuid.MustParse(form.ID)

	detail, err := service.AttachFields(ctx, actor, formID, []dto.FormFieldAttachRequest{
		{FieldDefinitionID: strengths.ID, Position: 1},
		{FieldDefinitionID: rating.ID, Position: 0, OverrideLabel: str("Rating (1-5)")},
	})
	require.NoError(t, err)
	require.Len(t, detail.Fields, 2)
	require.Equal(t, "overall_rating", detail.Fields[0].Key)
	require.Equal(t, "Rating (1-5)", detail.Fields[0].Label)
	require.Equal(t, "strengths", detail.Fields[1].Key)

	// Re-attaching repositions in place instead of duplicating.
	detail, err = service.AttachFields(ctx, actor, formID, []dto.FormFieldAttachRequest{
		{FieldDefinitionID: rating.ID, Position: 2},
	})
	require.NoError(t, err)
	require.Len(t, detail.Fields, 2)
	require.Equal(t, "strengths", detail.Fields[0].Key)
	require.Equal(t, "overall_rating", detail.Fields[1].Key)
}

func TestAttachFieldsUnknownDefinition(t *testing.T) {
	service, actor := newFormService(t)
	ctx := context.Background()

	form, err := service.CreateTemplate(ctx, actor, dto.FormTemplateCreateRequest{Name: "Annual review"})
	require.NoError(t, err)

	_, err = service.AttachFields(ctx, actor, uuid.MustParse(form.ID), []dto.FormFieldAttachRequest{
		{FieldDefinitionID: uuid.NewString(), Position: 0},
	})
	require.ErrorIs(t, err, ErrFieldDefNotFound)
}
