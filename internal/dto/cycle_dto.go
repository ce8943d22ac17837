package dto

import (
	"time"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// CycleCreateRequest creates a review cycle in DRAFT.
type CycleCreateRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=200"`
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	FormTemplateID *string `json:"form_template_id" validate:"omitempty,uuid4"`
}

// CycleUpdateRequest patches a DRAFT cycle; nil fields stay unchanged.
type CycleUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	FormTemplateID *string `json:"form_template_id" validate:"omitempty,uuid4"`
}

// CycleResponse is the wire form of a review cycle.
type CycleResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Status          string     `json:"status"`
	CreatedByUserID string     `json:"created_by_user_id"`
	FormTemplateID  *string    `json:"form_template_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewCycleResponse maps a model to its wire form.
func NewCycleResponse(c models.ReviewCycle) CycleResponse {
	response := CycleResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		Status:          c.Status,
		CreatedByUserID: c.CreatedByUserID.String(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.FormTemplateID != nil {
		id := c.FormTemplateID.String()
		response.FormTemplateID = &id
	}
	return response
}

// NewCycleResponseSlice maps a list of cycles.
func NewCycleResponseSlice(cycles []models.ReviewCycle) []CycleResponse {
	out := make([]CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, NewCycleResponse(c))
	}
	return out
}
