package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// IdempotencyStatusInProgress marks a request whose side effects may still run.
	IdempotencyStatusInProgress = "IN_PROGRESS"
	// IdempotencyStatusCompleted means the cached response is authoritative forever.
	IdempotencyStatusCompleted = "COMPLETED"
	// IdempotencyStatusFailed permits a retry under the same key.
	IdempotencyStatusFailed = "FAILED"
)

// IdempotencyKey records one client-supplied retry key per user. The
// request hash pins the key to one payload; reuse with a different body
// is rejected rather than silently deduplicated.
type IdempotencyKey struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_idem_user_key" json:"user_id"`
	Key          string         `gorm:"size:128;not null;uniqueIndex:uq_idem_user_key" json:"key"`
	Method       string         `gorm:"size:10;not null" json:"method"`
	Route        string         `gorm:"size:300;not null" json:"route"`
	RequestHash  string         `gorm:"size:64" json:"request_hash"`
	Status       string         `gorm:"size:20;not null;default:IN_PROGRESS;check:status IN ('IN_PROGRESS','COMPLETED','FAILED');index:ix_idem_status_updated" json:"status"`
	ResponseCode *int           `json:"response_code"`
	ResponseBody datatypes.JSON `gorm:"type:json" json:"response_body"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index:ix_idem_status_updated" json:"updated_at"`
	// ExpiresAt is a purge boundary; nil keeps the record forever.
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
}

func (k *IdempotencyKey) BeforeCreate(_ *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
