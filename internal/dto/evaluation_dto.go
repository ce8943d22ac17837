package dto

import (
	"time"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// ResponseUpsert is one question answer in a draft save.
type ResponseUpsert struct {
	QuestionKey string  `json:"question_key" validate:"required,min=1,max=100"`
	ValueText   *string `json:"value_text"`
}

// SaveDraftRequest carries the answers of one draft save.
type SaveDraftRequest struct {
	Responses []ResponseUpsert `json:"responses" validate:"dive"`
}

// EvaluationResponse is the wire form of an evaluation without its answers.
type EvaluationResponse struct {
	ID           string     `json:"id"`
	CycleID      string     `json:"cycle_id"`
	AssignmentID string     `json:"assignment_id"`
	Status       string     `json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ApprovedAt   *time.Time `json:"approved_at"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EvaluationDetailResponse adds the stored answers keyed by question key.
type EvaluationDetailResponse struct {
	EvaluationResponse
	Responses map[string]*string `json:"responses"`
}

// NewEvaluationResponse maps a model to its wire form.
func NewEvaluationResponse(e models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:           e.ID.String(),
		CycleID:      e.CycleID.String(),
		AssignmentID: e.AssignmentID.String(),
		Status:       e.Status,
		SubmittedAt:  e.SubmittedAt,
		ApprovedAt:   e.ApprovedAt,
		Version:      e.Version,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// NewEvaluationDetailResponse maps a model and its responses to the wire form.
func NewEvaluationDetailResponse(e models.Evaluation, responses []models.EvaluationResponse) EvaluationDetailResponse {
	answers := make(map[string]*string, len(responses))
	for _, r := range responses {
		answers[r.QuestionKey] = r.ValueText
	}
	return EvaluationDetailResponse{
		EvaluationResponse: NewEvaluationResponse(e),
		Responses:          answers,
	}
}
