package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// AssignmentFilter narrows assignment listings within a cycle.
type AssignmentFilter struct {
	ReviewerEmployeeID *uuid.UUID
	SubjectEmployeeID  *uuid.UUID
	Status             string
}

// AssignmentRepository defines persistence operations for review assignments.
type AssignmentRepository interface {
	ListByCycle(ctx context.Context, cycleID uuid.UUID, filter AssignmentFilter) ([]models.ReviewAssignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.ReviewAssignment, error)
	CreateBatch(ctx context.Context, assignments []*models.ReviewAssignment) error
	WithTx(tx *gorm.DB) AssignmentRepository
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: tx}
}

func (r *assignmentRepository) ListByCycle(ctx context.Context, cycleID uuid.UUID, filter AssignmentFilter) ([]models.ReviewAssignment, error) {
	query := r.db.WithContext(ctx).Where("cycle_id = ?", cycleID)

	if filter.ReviewerEmployeeID != nil {
		query = query.Where("reviewer_employee_id = ?", *filter.ReviewerEmployeeID)
	}
	if filter.SubjectEmployeeID != nil {
		query = query.Where("subject_employee_id = ?", *filter.SubjectEmployeeID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var assignments []models.ReviewAssignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ReviewAssignment, error) {
	var assignment models.ReviewAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return models.ReviewAssignment{}, err
	}
	return assignment, nil
}

// CreateBatch inserts all assignments or none; a uniqueness violation on
// any row rolls back the whole batch.
func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []*models.ReviewAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, assignment := range assignments {
			if err := tx.Create(assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
