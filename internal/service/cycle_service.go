package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

// CycleService manages the review cycle lifecycle DRAFT -> ACTIVE -> CLOSED.
type CycleService interface {
	List(ctx context.Context) ([]dto.CycleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.CycleResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CycleCreateRequest) (dto.CycleResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.CycleUpdateRequest) (dto.CycleResponse, error)
	Activate(ctx context.Context, actor Actor, id uuid.UUID) (dto.CycleResponse, error)
	Close(ctx context.Context, actor Actor, id uuid.UUID) (dto.CycleResponse, error)
}

type cycleService struct {
	db        *gorm.DB
	cycles    repository.CycleRepository
	forms     repository.FormRepository
	audit     AuditService
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCycleService builds the cycle lifecycle service.
func NewCycleService(db *gorm.DB, cycles repository.CycleRepository, forms repository.FormRepository, audit AuditService, logger zerolog.Logger) CycleService {
	return &cycleService{
		db:        db,
		cycles:    cycles,
		forms:     forms,
		audit:     audit,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "cycle_service").Logger(),
	}
}

func (s *cycleService) List(ctx context.Context) ([]dto.CycleResponse, error) {
	cycles, err := s.cycles.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCycleResponseSlice(cycles), nil
}

func (s *cycleService) Get(ctx context.Context, id uuid.UUID) (dto.CycleResponse, error) {
	cycle, err := s.cycles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CycleResponse{}, ErrCycleNotFound
		}
		return dto.CycleResponse{}, err
	}
	return dto.NewCycleResponse(cycle), nil
}

func (s *cycleService) resolveFormTemplate(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, ErrFormNotFound
	}
	if _, err := s.forms.GetTemplate(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return &id, nil
}

func parseCycleDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(isoDateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *cycleService) Create(ctx context.Context, actor Actor, req dto.CycleCreateRequest) (dto.CycleResponse, error) {
	formTemplateID, err := s.resolveFormTemplate(ctx, req.FormTemplateID)
	if err != nil {
		return dto.CycleResponse{}, err
	}
	startDate, err := parseCycleDate(req.StartDate)
	if err != nil {
		return dto.CycleResponse{}, err
	}
	endDate, err := parseCycleDate(req.EndDate)
	if err != nil {
		return dto.CycleResponse{}, err
	}

	cycle := models.ReviewCycle{
		Name:            s.sanitizer.Sanitize(req.Name),
		StartDate:       startDate,
		EndDate:         endDate,
		Status:          models.CycleStatusDraft,
		CreatedByUserID: actor.UserID,
		FormTemplateID:  formTemplateID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.cycles.WithTx(tx).Create(ctx, &cycle); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, models.AuditCycleCreated, "review_cycle", cycle.ID, map[string]interface{}{
			"name":   cycle.Name,
			"status": cycle.Status,
		})
	})
	if err != nil {
		return dto.CycleResponse{}, err
	}

	s.audit.PublishRecorded(models.AuditCycleCreated, cycle.ID, nil)
	s.logger.Info().Str("cycle_id", cycle.ID.String()).Msg("review cycle created")
	return dto.NewCycleResponse(cycle), nil
}

func (s *cycleService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.CycleUpdateRequest) (dto.CycleResponse, error) {
	cycle, err := s.cycles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CycleResponse{}, ErrCycleNotFound
		}
		return dto.CycleResponse{}, err
	}
	if cycle.Status != models.CycleStatusDraft {
		return dto.CycleResponse{}, &InvalidTransitionError{Action: "update", From: cycle.Status}
	}

	if req.Name != nil {
		cycle.Name = s.sanitizer.Sanitize(*req.Name)
	}
	if req.StartDate != nil {
		startDate, err := parseCycleDate(req.StartDate)
		if err != nil {
			return dto.CycleResponse{}, err
		}
		cycle.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseCycleDate(req.EndDate)
		if err != nil {
			return dto.CycleResponse{}, err
		}
		cycle.EndDate = endDate
	}
	if req.FormTemplateID != nil {
		formTemplateID, err := s.resolveFormTemplate(ctx, req.FormTemplateID)
		if err != nil {
			return dto.CycleResponse{}, err
		}
		cycle.FormTemplateID = formTemplateID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.cycles.WithTx(tx).Update(ctx, &cycle); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, models.AuditCycleUpdated, "review_cycle", cycle.ID, map[string]interface{}{
			"name": cycle.Name,
		})
	})
	if err != nil {
		return dto.CycleResponse{}, err
	}
	return dto.NewCycleResponse(cycle), nil
}

func (s *cycleService) Activate(ctx context.Context, actor Actor, id uuid.UUID) (dto.CycleResponse, error) {
	return s.changeStatus(ctx, actor, id, "activate", models.CycleStatusDraft, models.CycleStatusActive, models.AuditCycleActivated)
}

func (s *cycleService) Close(ctx context.Context, actor Actor, id uuid.UUID) (dto.CycleResponse, error) {
	return s.changeStatus(ctx, actor, id, "close", models.CycleStatusActive, models.CycleStatusClosed, models.AuditCycleClosed)
}

func (s *cycleService) changeStatus(ctx context.Context, actor Actor, id uuid.UUID, action, from, to, auditAction string) (dto.CycleResponse, error) {
	cycle, err := s.cycles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CycleResponse{}, ErrCycleNotFound
		}
		return dto.CycleResponse{}, err
	}
	if cycle.Status == to {
		// Re-applying a lifecycle change is a no-op.
		return dto.NewCycleResponse(cycle), nil
	}
	if cycle.Status != from {
		return dto.CycleResponse{}, &InvalidTransitionError{Action: action, From: cycle.Status}
	}

	// Activation requires a form template so evaluations can be validated.
	if to == models.CycleStatusActive && cycle.FormTemplateID == nil {
		return dto.CycleResponse{}, ErrFormNotAssigned
	}

	previous := cycle.Status
	cycle.Status = to
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.cycles.WithTx(tx).Update(ctx, &cycle); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, auditAction, "review_cycle", cycle.ID, map[string]interface{}{
			"from": previous,
			"to":   cycle.Status,
		})
	})
	if err != nil {
		return dto.CycleResponse{}, err
	}

	s.audit.PublishRecorded(auditAction, cycle.ID, map[string]interface{}{"to": cycle.Status})
	s.logger.Info().Str("cycle_id", cycle.ID.String()).Str("status", cycle.Status).Msg("review cycle status changed")
	return dto.NewCycleResponse(cycle), nil
}
