package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

type assignmentFixture struct {
	db       *gorm.DB
	service  AssignmentService
	admin    Actor
	cycle    models.ReviewCycle
	reviewer models.Employee
	subject  models.Employee
	approver models.Employee
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	db := newTestDB(t)

	reviewer, _ := seedEmployee(t, db, "Reviewer", false)
	subject, _ := seedEmployee(t, db, "Subject", false)
	approver, _ := seedEmployee(t, db, "Approver", false)

	admin := models.User{Email: uuid.NewString() + "@revu.test", FullName: "Admin"}
	require.NoError(t, db.Create(&admin).Error)

	cycle := models.ReviewCycle{
		Name:            "FY26 annual",
		Status:          models.CycleStatusDraft,
		CreatedByUserID: admin.ID,
	}
	require.NoError(t, db.Create(&cycle).Error)

	assignmentRepo := repository.NewAssignmentRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	audit := NewAuditService(auditRepo, nil, zerolog.Nop())

	return &assignmentFixture{
		db:       db,
		service:  NewAssignmentService(db, assignmentRepo, cycleRepo, employeeRepo, audit, zerolog.Nop()),
		admin:    Actor{UserID: admin.ID},
		cycle:    cycle,
		reviewer: reviewer,
		subject:  subject,
		approver: approver,
	}
}

func (f *assignmentFixture) triple() dto.AssignmentCreate {
	return dto.AssignmentCreate{
		ReviewerEmployeeID: f.reviewer.ID.String(),
		SubjectEmployeeID:  f.subject.ID.String(),
		ApproverEmployeeID: f.approver.ID.String(),
	}
}

func TestAssignmentBulkCreate(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	created, err := f.service.BulkCreate(ctx, f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{f.triple()},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, models.AssignmentStatusActive, created[0].Status)

	listed, err := f.service.List(ctx, f.cycle.ID, repository.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	var count int64
	require.NoError(t, f.db.Model(&models.AuditEvent{}).Where("action = ?", models.AuditAssignmentsCreated).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAssignmentBulkCreateRejectsMissingEmployee(t *testing.T) {
	f := newAssignmentFixture(t)

	item := f.triple()
	item.SubjectEmployeeID = uuid.NewString()

	var validationErr *ValidationError
	_, err := f.service.BulkCreate(context.Background(), f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{item},
	})
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 1)
	require.Equal(t, "not_found", validationErr.Errors[0].Code)

	// The whole batch is rejected; nothing was inserted.
	var count int64
	require.NoError(t, f.db.Model(&models.ReviewAssignment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAssignmentBulkCreateRejectsMalformedIDs(t *testing.T) {
	f := newAssignmentFixture(t)

	item := f.triple()
	item.ApproverEmployeeID = "not-a-uuid"

	var validationErr *ValidationError
	_, err := f.service.BulkCreate(context.Background(), f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{item},
	})
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "items[0].approver_employee_id", validationErr.Errors[0].Field)
}

func TestAssignmentBulkCreateRequiresDraftCycle(t *testing.T) {
	f := newAssignmentFixture(t)

	require.NoError(t, f.db.Model(&models.ReviewCycle{}).
		Where("id = ?", f.cycle.ID).
		Update("status", models.CycleStatusActive).Error)

	var transitionErr *InvalidTransitionError
	_, err := f.service.BulkCreate(context.Background(), f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{f.triple()},
	})
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, "add_assignments", transitionErr.Action)
}

func TestAssignmentBulkCreateRejectsDuplicateTriple(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := f.service.BulkCreate(ctx, f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{f.triple()},
	})
	require.NoError(t, err)

	_, err = f.service.BulkCreate(ctx, f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{f.triple()},
	})
	require.ErrorIs(t, err, ErrDuplicateEntity)
}

func TestAssignmentListFiltersByReviewer(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	other, _ := seedEmployee(t, f.db, "Other reviewer", false)
	second := f.triple()
	second.ReviewerEmployeeID = other.ID.String()
	// A second subject keeps the (cycle, reviewer, subject) triple unique.
	secondSubject, _ := seedEmployee(t, f.db, "Second subject", false)
	second.SubjectEmployeeID = secondSubject.ID.String()

	_, err := f.service.BulkCreate(ctx, f.admin, f.cycle.ID, dto.AssignmentBulkCreateRequest{
		Items: []dto.AssignmentCreate{f.triple(), second},
	})
	require.NoError(t, err)

	listed, err := f.service.List(ctx, f.cycle.ID, repository.AssignmentFilter{ReviewerEmployeeID: &other.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, other.ID.String(), listed[0].ReviewerEmployeeID)
}

func TestAssignmentListUnknownCycle(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.service.List(context.Background(), uuid.New(), repository.AssignmentFilter{})
	require.ErrorIs(t, err, ErrCycleNotFound)
}
