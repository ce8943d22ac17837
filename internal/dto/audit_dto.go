package dto

import (
	"time"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// AuditEventResponse is the wire form of one audit trail entry.
type AuditEventResponse struct {
	ID          string                 `json:"id"`
	ActorUserID *string                `json:"actor_user_id"`
	Action      string                 `json:"action"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewAuditEventResponse maps a model to its wire form.
func NewAuditEventResponse(e models.AuditEvent) AuditEventResponse {
	response := AuditEventResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
	}
	if e.ActorUserID != nil {
		id := e.ActorUserID.String()
		response.ActorUserID = &id
	}
	return response
}

// NewAuditEventResponseSlice maps a list of audit events.
func NewAuditEventResponseSlice(events []models.AuditEvent) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, NewAuditEventResponse(e))
	}
	return out
}
