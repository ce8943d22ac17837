package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationResponse holds one answered question of a draft. It carries
// no version of its own: upserts piggyback on the parent evaluation's
// version bump.
type EvaluationResponse struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EvaluationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_eval_question" json:"evaluation_id"`
	QuestionKey  string    `gorm:"size:100;not null;uniqueIndex:uq_eval_question" json:"question_key"`
	ValueText    *string   `gorm:"type:text" json:"value_text"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *EvaluationResponse) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
