package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// CycleRepository defines persistence operations for review cycles.
type CycleRepository interface {
	List(ctx context.Context) ([]models.ReviewCycle, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.ReviewCycle, error)
	Create(ctx context.Context, cycle *models.ReviewCycle) error
	Update(ctx context.Context, cycle *models.ReviewCycle) error
	WithTx(tx *gorm.DB) CycleRepository
}

type cycleRepository struct {
	db *gorm.DB
}

// NewCycleRepository instantiates a GORM-backed repository.
func NewCycleRepository(db *gorm.DB) CycleRepository {
	return &cycleRepository{db: db}
}

func (r *cycleRepository) WithTx(tx *gorm.DB) CycleRepository {
	return &cycleRepository{db: tx}
}

func (r *cycleRepository) List(ctx context.Context) ([]models.ReviewCycle, error) {
	var cycles []models.ReviewCycle
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

func (r *cycleRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ReviewCycle, error) {
	var cycle models.ReviewCycle
	if err := r.db.WithContext(ctx).First(&cycle, "id = ?", id).Error; err != nil {
		return models.ReviewCycle{}, err
	}
	return cycle, nil
}

func (r *cycleRepository) Create(ctx context.Context, cycle *models.ReviewCycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *cycleRepository) Update(ctx context.Context, cycle *models.ReviewCycle) error {
	return r.db.WithContext(ctx).Save(cycle).Error
}
