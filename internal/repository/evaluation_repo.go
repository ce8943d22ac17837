package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// ErrVersionConflict reports a compare-and-swap write that matched no
// row: the stored version moved on since it was read.
var ErrVersionConflict = errors.New("evaluation version conflict")

// EvaluationUpdate carries the column changes of one versioned write.
// Nil pointers leave the stored value untouched.
type EvaluationUpdate struct {
	Status      string
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
}

// EvaluationRepository defines persistence operations for evaluations
// and their responses.
type EvaluationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.Evaluation, error)
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID) (models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
	// LockByID reads the row under an exclusive lock so concurrent
	// transitions against the same evaluation serialize.
	LockByID(ctx context.Context, id uuid.UUID) (models.Evaluation, error)
	// UpdateVersioned writes the update with version = expected + 1,
	// predicated on the stored version still being expected.
	UpdateVersioned(ctx context.Context, evaluation *models.Evaluation, expectedVersion int, update EvaluationUpdate) error
	UpsertResponse(ctx context.Context, evaluationID uuid.UUID, questionKey string, valueText *string) error
	ListResponses(ctx context.Context, evaluationID uuid.UUID) ([]models.EvaluationResponse, error)
	WithTx(tx *gorm.DB) EvaluationRepository
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates a GORM-backed repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) WithTx(tx *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: tx}
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).First(&evaluation, "id = ?", id).Error; err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).First(&evaluation, "assignment_id = ?", assignmentID).Error; err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) LockByID(ctx context.Context, id uuid.UUID) (models.Evaluation, error) {
	query := r.db.WithContext(ctx)
	// SQLite has no row locks; its single-writer lock already serializes.
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var evaluation models.Evaluation
	if err := query.First(&evaluation, "id = ?", id).Error; err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) UpdateVersioned(ctx context.Context, evaluation *models.Evaluation, expectedVersion int, update EvaluationUpdate) error {
	now := time.Now().UTC()
	columns := map[string]interface{}{
		"version":    expectedVersion + 1,
		"updated_at": now,
	}
	if update.Status != "" {
		columns["status"] = update.Status
	}
	if update.SubmittedAt != nil {
		columns["submitted_at"] = *update.SubmittedAt
	}
	if update.ApprovedAt != nil {
		columns["approved_at"] = *update.ApprovedAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("id = ? AND version = ?", evaluation.ID, expectedVersion).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	evaluation.Version = expectedVersion + 1
	evaluation.UpdatedAt = now
	if update.Status != "" {
		evaluation.Status = update.Status
	}
	if update.SubmittedAt != nil {
		evaluation.SubmittedAt = update.SubmittedAt
	}
	if update.ApprovedAt != nil {
		evaluation.ApprovedAt = update.ApprovedAt
	}
	return nil
}

func (r *evaluationRepository) UpsertResponse(ctx context.Context, evaluationID uuid.UUID, questionKey string, valueText *string) error {
	var existing models.EvaluationResponse
	err := r.db.WithContext(ctx).
		First(&existing, "evaluation_id = ? AND question_key = ?", evaluationID, questionKey).Error
	if err == nil {
		existing.ValueText = valueText
		existing.UpdatedAt = time.Now().UTC()
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return r.db.WithContext(ctx).Create(&models.EvaluationResponse{
		EvaluationID: evaluationID,
		QuestionKey:  questionKey,
		ValueText:    valueText,
		UpdatedAt:    time.Now().UTC(),
	}).Error
}

func (r *evaluationRepository) ListResponses(ctx context.Context, evaluationID uuid.UUID) ([]models.EvaluationResponse, error) {
	var responses []models.EvaluationResponse
	if err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", evaluationID).
		Order("question_key ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}
