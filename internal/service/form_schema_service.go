package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

const formSchemaCachePrefix = "revu:form_schema:"

// FormSchemaService resolves the field schema a cycle's evaluations are
// validated against: the cycle's form template fields merged with their
// base definitions, keyed by question key.
type FormSchemaService interface {
	Resolve(ctx context.Context, cycle models.ReviewCycle) (map[string]FieldSpec, error)
	// Invalidate drops the cached schema of a form template. Called
	// whenever the template's fields or active flag change.
	Invalidate(ctx context.Context, formTemplateID uuid.UUID)
}

type formSchemaService struct {
	forms    repository.FormRepository
	redis    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewFormSchemaService builds the resolver. A nil redis client disables caching.
func NewFormSchemaService(forms repository.FormRepository, redisClient *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) FormSchemaService {
	return &formSchemaService{
		forms:    forms,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "form_schema_service").Logger(),
	}
}

// cachedField is the serializable shape of one resolved field. Rules are
// kept raw and re-parsed after a cache hit.
type cachedField struct {
	Key      string                 `json:"key"`
	Label    string                 `json:"label"`
	Type     string                 `json:"type"`
	Required bool                   `json:"required"`
	Position int                    `json:"position"`
	Rules    map[string]interface{} `json:"rules"`
}

func (s *formSchemaService) Resolve(ctx context.Context, cycle models.ReviewCycle) (map[string]FieldSpec, error) {
	if cycle.FormTemplateID == nil {
		return nil, ErrFormNotAssigned
	}

	form, err := s.forms.GetTemplate(ctx, *cycle.FormTemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormInactive
		}
		return nil, err
	}
	if !form.IsActive {
		return nil, ErrFormInactive
	}

	if fields, ok := s.fromCache(ctx, form.ID); ok {
		return s.toSpecMap(fields), nil
	}

	rows, err := s.forms.ListTemplateFields(ctx, form.ID)
	if err != nil {
		return nil, err
	}

	fields := make([]cachedField, 0, len(rows))
	for _, row := range rows {
		base := row.Field
		label := base.Label
		if row.OverrideLabel != nil {
			label = *row.OverrideLabel
		}
		required := base.Required
		if row.OverrideRequired != nil {
			required = *row.OverrideRequired
		}
		fields = append(fields, cachedField{
			Key:      base.Key,
			Label:    label,
			Type:     base.FieldType,
			Required: required,
			Position: row.Position,
			Rules:    base.Rules,
		})
	}

	s.toCache(ctx, form.ID, fields)
	return s.toSpecMap(fields), nil
}

func (s *formSchemaService) toSpecMap(fields []cachedField) map[string]FieldSpec {
	specs := make(map[string]FieldSpec, len(fields))
	for _, f := range fields {
		spec := FieldSpec{
			Key:      f.Key,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Position: f.Position,
		}
		// A nil rule marks an unrecognized declared type; the validators
		// turn that into a per-field error.
		if rule, err := parseFieldRule(f.Type, f.Rules); err == nil {
			spec.Rule = rule
		}
		specs[f.Key] = spec
	}
	return specs
}

func (s *formSchemaService) fromCache(ctx context.Context, formID uuid.UUID) ([]cachedField, bool) {
	if s.redis == nil {
		return nil, false
	}

	raw, err := s.redis.Get(ctx, formSchemaCachePrefix+formID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("form schema cache read failed")
		}
		return nil, false
	}

	var fields []cachedField
	if err := json.Unmarshal(raw, &fields); err != nil {
		s.logger.Warn().Err(err).Msg("form schema cache entry corrupt")
		return nil, false
	}
	return fields, true
}

func (s *formSchemaService) toCache(ctx context.Context, formID uuid.UUID, fields []cachedField) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, formSchemaCachePrefix+formID.String(), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("form schema cache write failed")
	}
}

func (s *formSchemaService) Invalidate(ctx context.Context, formTemplateID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, formSchemaCachePrefix+formTemplateID.String()).Err(); err != nil {
		s.logger.Warn().Err(err).Str("form_template_id", formTemplateID.String()).Msg("form schema cache invalidation failed")
	}
}
