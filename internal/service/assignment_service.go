package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// AssignmentService manages the (reviewer, subject, approver) triples of a cycle.
type AssignmentService interface {
	List(ctx context.Context, cycleID uuid.UUID, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error)
	BulkCreate(ctx context.Context, actor Actor, cycleID uuid.UUID, req dto.AssignmentBulkCreateRequest) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	cycles      repository.CycleRepository
	employees   repository.EmployeeRepository
	audit       AuditService
	logger      zerolog.Logger
}

// NewAssignmentService builds the assignment service.
func NewAssignmentService(db *gorm.DB, assignments repository.AssignmentRepository, cycles repository.CycleRepository, employees repository.EmployeeRepository, audit AuditService, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		db:          db,
		assignments: assignments,
		cycles:      cycles,
		employees:   employees,
		audit:       audit,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, cycleID uuid.UUID, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error) {
	if _, err := s.cycles.GetByID(ctx, cycleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	assignments, err := s.assignments.ListByCycle(ctx, cycleID, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponseSlice(assignments), nil
}

// BulkCreate inserts assignments into a DRAFT cycle. Every referenced
// employee must exist; the whole batch is rejected if any is missing so
// a partially built cycle never activates.
func (s *assignmentService) BulkCreate(ctx context.Context, actor Actor, cycleID uuid.UUID, req dto.AssignmentBulkCreateRequest) ([]dto.AssignmentResponse, error) {
	cycle, err := s.cycles.GetByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	if cycle.Status != models.CycleStatusDraft {
		return nil, &InvalidTransitionError{Action: "add_assignments", From: cycle.Status}
	}

	assignments := make([]*models.ReviewAssignment, 0, len(req.Items))
	referenced := make([]uuid.UUID, 0, len(req.Items)*3)
	for i, item := range req.Items {
		reviewerID, err := uuid.Parse(item.ReviewerEmployeeID)
		if err != nil {
			return nil, fieldParseError(i, "reviewer_employee_id")
		}
		subjectID, err := uuid.Parse(item.SubjectEmployeeID)
		if err != nil {
			return nil, fieldParseError(i, "subject_employee_id")
		}
		approverID, err := uuid.Parse(item.ApproverEmployeeID)
		if err != nil {
			return nil, fieldParseError(i, "approver_employee_id")
		}
		referenced = append(referenced, reviewerID, subjectID, approverID)
		assignments = append(assignments, &models.ReviewAssignment{
			CycleID:            cycle.ID,
			ReviewerEmployeeID: reviewerID,
			SubjectEmployeeID:  subjectID,
			ApproverEmployeeID: approverID,
			Status:             models.AssignmentStatusActive,
		})
	}

	existing, err := s.employees.ExistingIDs(ctx, referenced)
	if err != nil {
		return nil, err
	}
	var missing []utils.FieldError
	seen := make(map[uuid.UUID]struct{})
	for _, id := range referenced {
		if _, ok := existing[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, utils.FieldError{
			Field:   "items",
			Code:    "not_found",
			Message: fmt.Sprintf("Employee %s does not exist", id),
		})
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "Assignment validation failed", Errors: missing}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.assignments.WithTx(tx).CreateBatch(ctx, assignments); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntity
			}
			return err
		}
		return s.audit.Record(ctx, tx, &actor.UserID, models.AuditAssignmentsCreated, "review_cycle", cycle.ID, map[string]interface{}{
			"count": len(assignments),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("cycle_id", cycle.ID.String()).Int("count", len(assignments)).Msg("assignments created")
	created := make([]models.ReviewAssignment, 0, len(assignments))
	for _, a := range assignments {
		created = append(created, *a)
	}
	return dto.NewAssignmentResponseSlice(created), nil
}

func fieldParseError(index int, field string) error {
	return &ValidationError{
		Message: "Assignment validation failed",
		Errors: []utils.FieldError{{
			Field:   fmt.Sprintf("items[%d].%s", index, field),
			Code:    "invalid",
			Message: "Must be a valid UUID",
		}},
	}
}
