package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/handler"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

type mockEvaluationService struct {
	lastActor           service.Actor
	lastExpectedVersion int
	lastIdempotencyKey  string
	response            dto.EvaluationResponse
	detail              dto.EvaluationDetailResponse
	err                 error
}

func (m *mockEvaluationService) CreateOrGet(_ context.Context, actor service.Actor, _, _ uuid.UUID, key string) (dto.EvaluationResponse, error) {
	m.lastActor = actor
	m.lastIdempotencyKey = key
	return m.response, m.err
}

func (m *mockEvaluationService) Get(_ context.Context, actor service.Actor, _, _ uuid.UUID) (dto.EvaluationDetailResponse, error) {
	m.lastActor = actor
	return m.detail, m.err
}

func (m *mockEvaluationService) SaveDraft(_ context.Context, actor service.Actor, _, _ uuid.UUID, expectedVersion int, _ dto.SaveDraftRequest, key string) (dto.EvaluationDetailResponse, error) {
	m.lastActor = actor
	m.lastExpectedVersion = expectedVersion
	m.lastIdempotencyKey = key
	return m.detail, m.err
}

func (m *mockEvaluationService) Submit(_ context.Context, actor service.Actor, _, _ uuid.UUID, expectedVersion int, key string) (dto.EvaluationResponse, error) {
	m.lastActor = actor
	m.lastExpectedVersion = expectedVersion
	m.lastIdempotencyKey = key
	return m.response, m.err
}

func (m *mockEvaluationService) Return(_ context.Context, actor service.Actor, _, _ uuid.UUID, expectedVersion int, key string) (dto.EvaluationResponse, error) {
	m.lastActor = actor
	m.lastExpectedVersion = expectedVersion
	m.lastIdempotencyKey = key
	return m.response, m.err
}

func (m *mockEvaluationService) Approve(_ context.Context, actor service.Actor, _, _ uuid.UUID, expectedVersion int, key string) (dto.EvaluationResponse, error) {
	m.lastActor = actor
	m.lastExpectedVersion = expectedVersion
	m.lastIdempotencyKey = key
	return m.response, m.err
}

func newEvaluationTestApp(svc service.EvaluationService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/cycles", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	validate := validator.New(validator.WithRequiredStructEnabled())
	handler.NewEvaluationHandler(svc, validate, zerolog.New(io.Discard)).Register(group)
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func submitURL(cycleID, evaluationID uuid.UUID) string {
	return "/api/v1/cycles/" + cycleID.String() + "/evaluations/" + evaluationID.String() + "/submit"
}

func TestEvaluationHandler_SubmitPlumbsHeaders(t *testing.T) {
	userID := uuid.New()
	svc := &mockEvaluationService{response: dto.EvaluationResponse{
		ID: uuid.NewString(), Status: "SUBMITTED", Version: 3,
	}}
	app := newEvaluationTestApp(svc, userID)

	req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
	req.Header.Set("If-Match", `"2"`)
	req.Header.Set("Idempotency-Key", "retry-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, `"3"`, resp.Header.Get("ETag"))
	require.Equal(t, 2, svc.lastExpectedVersion)
	require.Equal(t, "retry-123", svc.lastIdempotencyKey)
	require.Equal(t, userID, svc.lastActor.UserID)
}

func TestEvaluationHandler_MissingIfMatchIs428(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationTestApp(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)
}

func TestEvaluationHandler_MalformedIfMatchIs400(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationTestApp(svc, uuid.New())

	for _, header := range []string{"abc", "0", "-4", `"0"`, "1.5"} {
		req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
		req.Header.Set("If-Match", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "If-Match %q", header)
	}
}

func TestEvaluationHandler_StaleVersionIs409WithDetail(t *testing.T) {
	svc := &mockEvaluationService{err: &service.StaleVersionError{Expected: 5, Got: 2}}
	app := newEvaluationTestApp(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
	req.Header.Set("If-Match", "2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var response struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, 5, response.Data["expected"])
	require.Equal(t, 2, response.Data["got"])
}

func TestEvaluationHandler_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"role guard", service.ErrNotReviewer, fiber.StatusForbidden},
		{"not found", service.ErrEvaluationNotFound, fiber.StatusNotFound},
		{"inactive cycle", service.ErrCycleNotActive, fiber.StatusConflict},
		{"invalid transition", &service.InvalidTransitionError{Action: "approve", From: "DRAFT"}, fiber.StatusConflict},
		{"key reuse", service.ErrIdempotencyKeyReuse, fiber.StatusConflict},
		{"in flight", service.ErrIdempotencyInFlight, fiber.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockEvaluationService{err: tc.err}
			app := newEvaluationTestApp(svc, uuid.New())

			req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
			req.Header.Set("If-Match", "1")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestEvaluationHandler_ValidationErrorBody(t *testing.T) {
	svc := &mockEvaluationService{err: &service.ValidationError{
		Message: "Submit validation failed",
		Errors:  []utils.FieldError{{Field: "overall_rating", Code: "required", Message: "Required"}},
	}}
	app := newEvaluationTestApp(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, submitURL(uuid.New(), uuid.New()), nil)
	req.Header.Set("If-Match", "1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Message string             `json:"message"`
		Errors  []utils.FieldError `json:"errors"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "Submit validation failed", response.Message)
	require.Len(t, response.Errors, 1)
	require.Equal(t, "required", response.Errors[0].Code)
}

func TestEvaluationHandler_SaveDraftParsesBody(t *testing.T) {
	svc := &mockEvaluationService{detail: dto.EvaluationDetailResponse{
		EvaluationResponse: dto.EvaluationResponse{ID: uuid.NewString(), Status: "DRAFT", Version: 2},
	}}
	app := newEvaluationTestApp(svc, uuid.New())

	payload := dto.SaveDraftRequest{Responses: []dto.ResponseUpsert{{QuestionKey: "overall_rating"}}}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	url := "/api/v1/cycles/" + uuid.NewString() + "/evaluations/" + uuid.NewString() + "/draft"
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", "1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, `"2"`, resp.Header.Get("ETag"))
	require.Equal(t, 1, svc.lastExpectedVersion)
}

func TestEvaluationHandler_CreateSetsETagAnd201(t *testing.T) {
	svc := &mockEvaluationService{response: dto.EvaluationResponse{ID: uuid.NewString(), Status: "DRAFT", Version: 1}}
	app := newEvaluationTestApp(svc, uuid.New())

	url := "/api/v1/cycles/" + uuid.NewString() + "/assignments/" + uuid.NewString() + "/evaluation"
	req := httptest.NewRequest(http.MethodPost, url, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, `"1"`, resp.Header.Get("ETag"))
}
