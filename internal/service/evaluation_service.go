package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/observability"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

// Actor identifies the authenticated caller of an evaluation operation.
type Actor struct {
	UserID uuid.UUID
}

type actorRole int

const (
	roleReviewer actorRole = iota
	roleApprover
)

// transition is one edge of the evaluation status graph: the audit
// action it records, the role allowed to apply it, its from/to statuses
// and which timestamps it stamps. All status-changing endpoints
// dispatch through the same apply function with one of these values.
type transition struct {
	action         string
	role           actorRole
	from           string
	to             string
	route          string
	stampSubmitted bool
	stampApproved  bool
}

var (
	transitionSubmit = transition{
		action:         models.AuditEvaluationSubmitted,
		role:           roleReviewer,
		from:           models.EvaluationStatusDraft,
		to:             models.EvaluationStatusSubmitted,
		route:          "/cycles/{cycle_id}/evaluations/{evaluation_id}/submit",
		stampSubmitted: true,
	}
	transitionReturn = transition{
		action: models.AuditEvaluationReturned,
		role:   roleApprover,
		from:   models.EvaluationStatusSubmitted,
		to:     models.EvaluationStatusReturned,
		route:  "/cycles/{cycle_id}/evaluations/{evaluation_id}/return",
	}
	transitionApprove = transition{
		action:       models.AuditEvaluationApproved,
		role:         roleApprover,
		from:         models.EvaluationStatusSubmitted,
		to:           models.EvaluationStatusApproved,
		route:        "/cycles/{cycle_id}/evaluations/{evaluation_id}/approve",
		stampApproved: true,
	}
)

// EvaluationService exposes the evaluation lifecycle use cases.
type EvaluationService interface {
	CreateOrGet(ctx context.Context, actor Actor, cycleID, assignmentID uuid.UUID, idempotencyKey string) (dto.EvaluationResponse, error)
	Get(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID) (dto.EvaluationDetailResponse, error)
	SaveDraft(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, payload dto.SaveDraftRequest, idempotencyKey string) (dto.EvaluationDetailResponse, error)
	Submit(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error)
	Return(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error)
	Approve(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error)
}

type evaluationService struct {
	db          *gorm.DB
	evaluations repository.EvaluationRepository
	cycles      repository.CycleRepository
	assignments repository.AssignmentRepository
	employees   repository.EmployeeRepository
	schema      FormSchemaService
	idempotency IdempotencyService
	audit       AuditService
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEvaluationService builds the evaluation state machine service.
func NewEvaluationService(
	db *gorm.DB,
	evaluations repository.EvaluationRepository,
	cycles repository.CycleRepository,
	assignments repository.AssignmentRepository,
	employees repository.EmployeeRepository,
	schema FormSchemaService,
	idempotency IdempotencyService,
	audit AuditService,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		db:          db,
		evaluations: evaluations,
		cycles:      cycles,
		assignments: assignments,
		employees:   employees,
		schema:      schema,
		idempotency: idempotency,
		audit:       audit,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/revu-go-api/internal/service/evaluation"),
	}
}

func (s *evaluationService) activeCycle(ctx context.Context, cycleID uuid.UUID) (models.ReviewCycle, error) {
	cycle, err := s.cycles.GetByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ReviewCycle{}, ErrCycleNotFound
		}
		return models.ReviewCycle{}, err
	}
	if !cycle.IsActive() {
		return models.ReviewCycle{}, ErrCycleNotActive
	}
	return cycle, nil
}

func (s *evaluationService) assignmentInCycle(ctx context.Context, assignments repository.AssignmentRepository, cycleID, assignmentID uuid.UUID) (models.ReviewAssignment, error) {
	assignment, err := assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ReviewAssignment{}, ErrAssignmentNotFound
		}
		return models.ReviewAssignment{}, err
	}
	if assignment.CycleID != cycleID {
		return models.ReviewAssignment{}, ErrAssignmentNotFound
	}
	return assignment, nil
}

// requireRole checks that the acting user is the assignment's reviewer
// or approver, resolved through the employee linked to the account.
func (s *evaluationService) requireRole(ctx context.Context, actor Actor, assignment models.ReviewAssignment, role actorRole) error {
	roleErr := ErrNotReviewer
	if role == roleApprover {
		roleErr = ErrNotApprover
	}

	employee, err := s.employees.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return roleErr
		}
		return err
	}

	switch role {
	case roleReviewer:
		if employee.ID != assignment.ReviewerEmployeeID {
			return roleErr
		}
	case roleApprover:
		if employee.ID != assignment.ApproverEmployeeID {
			return roleErr
		}
	}
	return nil
}

func replayResponse[T any](record models.IdempotencyKey) (T, error) {
	var out T
	if err := json.Unmarshal(record.ResponseBody, &out); err != nil {
		return out, err
	}
	return out, nil
}

// failKey marks the idempotency record FAILED in its own transaction so
// the client's next retry under the same key is accepted.
func (s *evaluationService) failKey(ctx context.Context, record *models.IdempotencyKey) {
	if record == nil {
		return
	}
	_ = s.idempotency.Fail(ctx, record)
}

func (s *evaluationService) CreateOrGet(ctx context.Context, actor Actor, cycleID, assignmentID uuid.UUID, idempotencyKey string) (dto.EvaluationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluations.create_or_get", trace.WithAttributes(
		attribute.String("cycle_id", cycleID.String()),
		attribute.String("assignment_id", assignmentID.String()),
	))
	defer span.End()

	if _, err := s.activeCycle(ctx, cycleID); err != nil {
		return dto.EvaluationResponse{}, err
	}
	assignment, err := s.assignmentInCycle(ctx, s.assignments, cycleID, assignmentID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}
	if err := s.requireRole(ctx, actor, assignment, roleReviewer); err != nil {
		return dto.EvaluationResponse{}, err
	}

	var record *models.IdempotencyKey
	if idempotencyKey != "" {
		rec, err := s.idempotency.Begin(ctx, actor.UserID, idempotencyKey, "POST",
			"/cycles/{cycle_id}/assignments/{assignment_id}/evaluation",
			struct {
				CycleID      string `json:"cycle_id"`
				AssignmentID string `json:"assignment_id"`
			}{cycleID.String(), assignmentID.String()})
		if err != nil {
			return dto.EvaluationResponse{}, err
		}
		if rec.Status == models.IdempotencyStatusCompleted {
			return replayResponse[dto.EvaluationResponse](rec)
		}
		record = &rec
	}

	var out dto.EvaluationResponse
	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		evaluations := s.evaluations.WithTx(tx)

		existing, err := evaluations.FindByAssignment(ctx, assignment.ID)
		if err == nil {
			out = dto.NewEvaluationResponse(existing)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		} else {
			evaluation := models.Evaluation{
				CycleID:      assignment.CycleID,
				AssignmentID: assignment.ID,
				Status:       models.EvaluationStatusDraft,
				Version:      1,
			}
			// The insert runs under a savepoint: on Postgres a unique
			// violation aborts the enclosing transaction, and the re-read
			// after a lost race still has to succeed.
			createErr := tx.Transaction(func(nested *gorm.DB) error {
				if err := s.evaluations.WithTx(nested).Create(ctx, &evaluation); err != nil {
					return err
				}
				return s.audit.Record(ctx, nested, &actor.UserID, models.AuditEvaluationCreated, "evaluation", evaluation.ID, map[string]interface{}{
					"cycle_id":      evaluation.CycleID.String(),
					"assignment_id": evaluation.AssignmentID.String(),
					"status":        evaluation.Status,
				})
			})
			if createErr != nil {
				if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
					return createErr
				}
				// Lost the get-or-create race; the winner's row is the answer.
				winner, err := evaluations.FindByAssignment(ctx, assignment.ID)
				if err != nil {
					return err
				}
				out = dto.NewEvaluationResponse(winner)
			} else {
				created = true
				out = dto.NewEvaluationResponse(evaluation)
			}
		}

		if record != nil {
			return s.idempotency.Complete(ctx, tx, record, 201, out)
		}
		return nil
	})
	if err != nil {
		s.failKey(ctx, record)
		return dto.EvaluationResponse{}, err
	}

	if created {
		observability.Transitions().WithLabelValues("create", "applied").Inc()
		s.audit.PublishRecorded(models.AuditEvaluationCreated, assignment.ID, map[string]interface{}{
			"cycle_id": cycleID.String(),
		})
		s.logger.Info().Str("assignment_id", assignment.ID.String()).Msg("evaluation created")
	} else {
		observability.Transitions().WithLabelValues("create", "reentry").Inc()
	}
	return out, nil
}

func (s *evaluationService) Get(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID) (dto.EvaluationDetailResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationDetailResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationDetailResponse{}, err
	}
	if evaluation.CycleID != cycleID {
		return dto.EvaluationDetailResponse{}, ErrEvaluationNotFound
	}

	assignment, err := s.assignmentInCycle(ctx, s.assignments, cycleID, evaluation.AssignmentID)
	if err != nil {
		return dto.EvaluationDetailResponse{}, err
	}

	// Either side of the assignment may read.
	if err := s.requireRole(ctx, actor, assignment, roleReviewer); err != nil {
		if !errors.Is(err, ErrNotReviewer) {
			return dto.EvaluationDetailResponse{}, err
		}
		if err := s.requireRole(ctx, actor, assignment, roleApprover); err != nil {
			return dto.EvaluationDetailResponse{}, err
		}
	}

	responses, err := s.evaluations.ListResponses(ctx, evaluationID)
	if err != nil {
		return dto.EvaluationDetailResponse{}, err
	}
	return dto.NewEvaluationDetailResponse(evaluation, responses), nil
}

func (s *evaluationService) SaveDraft(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, payload dto.SaveDraftRequest, idempotencyKey string) (dto.EvaluationDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluations.save_draft", trace.WithAttributes(
		attribute.String("evaluation_id", evaluationID.String()),
		attribute.Int("expected_version", expectedVersion),
	))
	defer span.End()

	cycle, err := s.activeCycle(ctx, cycleID)
	if err != nil {
		return dto.EvaluationDetailResponse{}, err
	}

	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationDetailResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationDetailResponse{}, err
	}
	if evaluation.CycleID != cycleID {
		return dto.EvaluationDetailResponse{}, ErrEvaluationNotFound
	}
	if evaluation.Status != models.EvaluationStatusDraft {
		return dto.EvaluationDetailResponse{}, &InvalidTransitionError{Action: "edit", From: evaluation.Status}
	}

	assignment, err := s.assignmentInCycle(ctx, s.assignments, cycleID, evaluation.AssignmentID)
	if err != nil {
		return dto.EvaluationDetailResponse{}, err
	}
	if err := s.requireRole(ctx, actor, assignment, roleReviewer); err != nil {
		return dto.EvaluationDetailResponse{}, err
	}

	// Validate before touching anything: keys must be declared, values
	// plausibly typed. Required fields may stay blank in a draft.
	specs, err := s.schema.Resolve(ctx, cycle)
	if err != nil {
		return dto.EvaluationDetailResponse{}, err
	}
	if fieldErrors := validateDraft(specs, payload.Responses); len(fieldErrors) > 0 {
		observability.ValidationFailures().WithLabelValues("draft").Inc()
		return dto.EvaluationDetailResponse{}, &ValidationError{Message: "Draft validation failed", Errors: fieldErrors}
	}

	var record *models.IdempotencyKey
	if idempotencyKey != "" {
		sorted := make([]dto.ResponseUpsert, len(payload.Responses))
		copy(sorted, payload.Responses)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuestionKey < sorted[j].QuestionKey })

		rec, err := s.idempotency.Begin(ctx, actor.UserID, idempotencyKey, "POST",
			"/cycles/{cycle_id}/evaluations/{evaluation_id}/draft",
			struct {
				EvaluationID string               `json:"evaluation_id"`
				IfMatch      int                  `json:"if_match"`
				Responses    []dto.ResponseUpsert `json:"responses"`
			}{evaluationID.String(), expectedVersion, sorted})
		if err != nil {
			return dto.EvaluationDetailResponse{}, err
		}
		if rec.Status == models.IdempotencyStatusCompleted {
			return replayResponse[dto.EvaluationDetailResponse](rec)
		}
		record = &rec
	}

	var out dto.EvaluationDetailResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		evaluations := s.evaluations.WithTx(tx)

		locked, err := evaluations.LockByID(ctx, evaluationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEvaluationNotFound
			}
			return err
		}
		if locked.Status != models.EvaluationStatusDraft {
			return &InvalidTransitionError{Action: "edit", From: locked.Status}
		}
		if locked.Version != expectedVersion {
			observability.StaleVersions().Inc()
			return &StaleVersionError{Expected: locked.Version, Got: expectedVersion}
		}

		for _, entry := range payload.Responses {
			if err := evaluations.UpsertResponse(ctx, locked.ID, entry.QuestionKey, entry.ValueText); err != nil {
				return err
			}
		}

		if err := evaluations.UpdateVersioned(ctx, &locked, expectedVersion, repository.EvaluationUpdate{}); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				observability.StaleVersions().Inc()
				return &StaleVersionError{Expected: locked.Version, Got: expectedVersion}
			}
			return err
		}

		if err := s.audit.Record(ctx, tx, &actor.UserID, models.AuditEvaluationDraftSaved, "evaluation", locked.ID, map[string]interface{}{
			"cycle_id":       locked.CycleID.String(),
			"assignment_id":  locked.AssignmentID.String(),
			"status":         locked.Status,
			"response_count": len(payload.Responses),
			"version":        locked.Version,
		}); err != nil {
			return err
		}

		responses, err := evaluations.ListResponses(ctx, locked.ID)
		if err != nil {
			return err
		}
		out = dto.NewEvaluationDetailResponse(locked, responses)

		if record != nil {
			return s.idempotency.Complete(ctx, tx, record, 200, out)
		}
		return nil
	})
	if err != nil {
		s.failKey(ctx, record)
		return dto.EvaluationDetailResponse{}, err
	}

	observability.Transitions().WithLabelValues("save_draft", "applied").Inc()
	s.audit.PublishRecorded(models.AuditEvaluationDraftSaved, evaluationID, map[string]interface{}{
		"version": out.Version,
	})
	return out, nil
}

func (s *evaluationService) Submit(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error) {
	return s.applyTransition(ctx, actor, cycleID, evaluationID, expectedVersion, idempotencyKey, transitionSubmit)
}

func (s *evaluationService) Return(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error) {
	return s.applyTransition(ctx, actor, cycleID, evaluationID, expectedVersion, idempotencyKey, transitionReturn)
}

func (s *evaluationService) Approve(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error) {
	return s.applyTransition(ctx, actor, cycleID, evaluationID, expectedVersion, idempotencyKey, transitionApprove)
}

// applyTransition runs one status-changing edge under the row lock:
// role guard, then version guard, then status guard, in that order, so
// error precedence is deterministic. Re-applying a transition that
// already happened (status == target, version matches) returns the
// current state without mutating or auditing.
func (s *evaluationService) applyTransition(ctx context.Context, actor Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string, t transition) (dto.EvaluationResponse, error) {
	spanName := "evaluations." + strings.ToLower(strings.TrimPrefix(t.action, "EVALUATION_"))
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("evaluation_id", evaluationID.String()),
		attribute.Int("expected_version", expectedVersion),
	))
	defer span.End()

	cycle, err := s.activeCycle(ctx, cycleID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	var record *models.IdempotencyKey
	if idempotencyKey != "" {
		rec, err := s.idempotency.Begin(ctx, actor.UserID, idempotencyKey, "POST", t.route,
			struct {
				EvaluationID string `json:"evaluation_id"`
				IfMatch      int    `json:"if_match"`
			}{evaluationID.String(), expectedVersion})
		if err != nil {
			return dto.EvaluationResponse{}, err
		}
		if rec.Status == models.IdempotencyStatusCompleted {
			return replayResponse[dto.EvaluationResponse](rec)
		}
		record = &rec
	}

	var out dto.EvaluationResponse
	var applied bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		evaluations := s.evaluations.WithTx(tx)

		locked, err := evaluations.LockByID(ctx, evaluationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEvaluationNotFound
			}
			return err
		}
		if locked.CycleID != cycleID {
			return ErrEvaluationNotFound
		}

		assignment, err := s.assignmentInCycle(ctx, s.assignments.WithTx(tx), cycleID, locked.AssignmentID)
		if err != nil {
			return err
		}
		if err := s.requireRole(ctx, actor, assignment, t.role); err != nil {
			return err
		}

		if locked.Version != expectedVersion {
			observability.StaleVersions().Inc()
			return &StaleVersionError{Expected: locked.Version, Got: expectedVersion}
		}

		if locked.Status == t.to {
			// Idempotent re-entry: the transition already happened.
			out = dto.NewEvaluationResponse(locked)
		} else {
			if locked.Status != t.from {
				return &InvalidTransitionError{Action: strings.ToLower(strings.TrimPrefix(t.action, "EVALUATION_")), From: locked.Status}
			}

			if t.to == models.EvaluationStatusSubmitted {
				if err := s.validateForSubmit(ctx, evaluations, cycle, locked.ID); err != nil {
					return err
				}
			}

			now := time.Now().UTC()
			update := repository.EvaluationUpdate{Status: t.to}
			if t.stampSubmitted {
				update.SubmittedAt = &now
			}
			if t.stampApproved {
				update.ApprovedAt = &now
			}
			previous := locked.Status
			if err := evaluations.UpdateVersioned(ctx, &locked, expectedVersion, update); err != nil {
				if errors.Is(err, repository.ErrVersionConflict) {
					observability.StaleVersions().Inc()
					return &StaleVersionError{Expected: locked.Version, Got: expectedVersion}
				}
				return err
			}
			applied = true

			if err := s.audit.Record(ctx, tx, &actor.UserID, t.action, "evaluation", locked.ID, map[string]interface{}{
				"cycle_id":      locked.CycleID.String(),
				"assignment_id": locked.AssignmentID.String(),
				"from":          previous,
				"to":            locked.Status,
				"version":       locked.Version,
			}); err != nil {
				return err
			}
			out = dto.NewEvaluationResponse(locked)
		}

		if record != nil {
			return s.idempotency.Complete(ctx, tx, record, 200, out)
		}
		return nil
	})
	if err != nil {
		s.failKey(ctx, record)
		observability.Transitions().WithLabelValues(strings.ToLower(strings.TrimPrefix(t.action, "EVALUATION_")), "rejected").Inc()
		return dto.EvaluationResponse{}, err
	}

	outcome := "reentry"
	if applied {
		outcome = "applied"
		s.audit.PublishRecorded(t.action, evaluationID, map[string]interface{}{
			"to":      out.Status,
			"version": out.Version,
		})
		s.logger.Info().
			Str("evaluation_id", evaluationID.String()).
			Str("status", out.Status).
			Int("version", out.Version).
			Msg("evaluation transition applied")
	}
	observability.Transitions().WithLabelValues(strings.ToLower(strings.TrimPrefix(t.action, "EVALUATION_")), outcome).Inc()
	return out, nil
}

// validateForSubmit runs the strict checks over the responses stored so
// far: required fields present, full rules satisfied, references resolve.
func (s *evaluationService) validateForSubmit(ctx context.Context, evaluations repository.EvaluationRepository, cycle models.ReviewCycle, evaluationID uuid.UUID) error {
	specs, err := s.schema.Resolve(ctx, cycle)
	if err != nil {
		return err
	}

	rows, err := evaluations.ListResponses(ctx, evaluationID)
	if err != nil {
		return err
	}
	stored := make(map[string]*string, len(rows))
	for _, row := range rows {
		stored[row.QuestionKey] = row.ValueText
	}

	fieldErrors, err := validateSubmit(ctx, specs, stored, s.employees)
	if err != nil {
		return err
	}
	if len(fieldErrors) > 0 {
		observability.ValidationFailures().WithLabelValues("submit").Inc()
		return &ValidationError{Message: "Submit validation failed", Errors: fieldErrors}
	}
	return nil
}
