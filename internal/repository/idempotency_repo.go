package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// IdempotencyRepository defines persistence operations for idempotency
// key records. The (user_id, key) uniqueness constraint is the only
// guard against concurrent first inserts; callers resolve the race by
// re-querying.
type IdempotencyRepository interface {
	FindByUserKey(ctx context.Context, userID uuid.UUID, key string) (models.IdempotencyKey, error)
	Create(ctx context.Context, record *models.IdempotencyKey) error
	Update(ctx context.Context, record *models.IdempotencyKey) error
	WithTx(tx *gorm.DB) IdempotencyRepository
}

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository instantiates a GORM-backed repository.
func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) WithTx(tx *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: tx}
}

func (r *idempotencyRepository) FindByUserKey(ctx context.Context, userID uuid.UUID, key string) (models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	if err := r.db.WithContext(ctx).
		First(&record, "user_id = ? AND key = ?", userID, key).Error; err != nil {
		return models.IdempotencyKey{}, err
	}
	return record, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *idempotencyRepository) Update(ctx context.Context, record *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Save(record).Error
}
