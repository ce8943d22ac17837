package dto

import (
	"time"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// AssignmentCreate is one (reviewer, subject, approver) triple of a bulk create.
type AssignmentCreate struct {
	ReviewerEmployeeID string `json:"reviewer_employee_id" validate:"required,uuid4"`
	SubjectEmployeeID  string `json:"subject_employee_id" validate:"required,uuid4"`
	ApproverEmployeeID string `json:"approver_employee_id" validate:"required,uuid4"`
}

// AssignmentBulkCreateRequest creates assignments while the cycle is DRAFT.
type AssignmentBulkCreateRequest struct {
	Items []AssignmentCreate `json:"items" validate:"required,min=1,dive"`
}

// AssignmentResponse is the wire form of a review assignment.
type AssignmentResponse struct {
	ID                 string    `json:"id"`
	CycleID            string    `json:"cycle_id"`
	ReviewerEmployeeID string    `json:"reviewer_employee_id"`
	SubjectEmployeeID  string    `json:"subject_employee_id"`
	ApproverEmployeeID string    `json:"approver_employee_id"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewAssignmentResponse maps a model to its wire form.
func NewAssignmentResponse(a models.ReviewAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                 a.ID.String(),
		CycleID:            a.CycleID.String(),
		ReviewerEmployeeID: a.ReviewerEmployeeID.String(),
		SubjectEmployeeID:  a.SubjectEmployeeID.String(),
		ApproverEmployeeID: a.ApproverEmployeeID.String(),
		Status:             a.Status,
		CreatedAt:          a.CreatedAt,
	}
}

// NewAssignmentResponseSlice maps a list of assignments.
func NewAssignmentResponseSlice(assignments []models.ReviewAssignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, NewAssignmentResponse(a))
	}
	return out
}
