package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// EvaluationHandler exposes the evaluation lifecycle endpoints. Every
// write requires If-Match (the version read from a prior ETag) and
// accepts an optional Idempotency-Key.
type EvaluationHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes under a cycle.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/:cycleID/assignments/:assignmentID/evaluation", h.createOrGet)
	router.Get("/:cycleID/evaluations/:evaluationID", h.get)
	router.Post("/:cycleID/evaluations/:evaluationID/draft", h.saveDraft)
	router.Post("/:cycleID/evaluations/:evaluationID/submit", h.submit)
	router.Post("/:cycleID/evaluations/:evaluationID/return", h.returnToReviewer)
	router.Post("/:cycleID/evaluations/:evaluationID/approve", h.approve)
}

func idempotencyKey(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get("Idempotency-Key"))
}

func (h *EvaluationHandler) createOrGet(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}
	assignmentID, err := parseUUIDParam(c, "assignmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	evaluation, err := h.service.CreateOrGet(c.UserContext(), actorFromContext(c), cycleID, assignmentID, idempotencyKey(c))
	if err != nil {
		return respondServiceError(c, logger, err, "failed to create evaluation")
	}

	c.Set(fiber.HeaderETag, utils.ETagValue(evaluation.Version))
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation ready", evaluation)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}
	evaluationID, err := parseUUIDParam(c, "evaluationID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	evaluation, err := h.service.Get(c.UserContext(), actorFromContext(c), cycleID, evaluationID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to get evaluation")
	}

	c.Set(fiber.HeaderETag, utils.ETagValue(evaluation.Version))
	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *EvaluationHandler) saveDraft(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}
	evaluationID, err := parseUUIDParam(c, "evaluationID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	expectedVersion, err := utils.ParseIfMatch(c.Get(fiber.HeaderIfMatch))
	if err != nil {
		return respondServiceError(c, logger, err, "invalid precondition")
	}

	var payload dto.SaveDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid draft payload")
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.SaveDraft(c.UserContext(), actorFromContext(c), cycleID, evaluationID, expectedVersion, payload, idempotencyKey(c))
	if err != nil {
		return respondServiceError(c, logger, err, "failed to save draft")
	}

	c.Set(fiber.HeaderETag, utils.ETagValue(evaluation.Version))
	return utils.SendSuccess(c, "draft saved", evaluation)
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	return h.transition(c, "failed to submit evaluation", "evaluation submitted", h.service.Submit)
}

func (h *EvaluationHandler) returnToReviewer(c *fiber.Ctx) error {
	return h.transition(c, "failed to return evaluation", "evaluation returned", h.service.Return)
}

func (h *EvaluationHandler) approve(c *fiber.Ctx) error {
	return h.transition(c, "failed to approve evaluation", "evaluation approved", h.service.Approve)
}

type evaluationTransition func(ctx context.Context, actor service.Actor, cycleID, evaluationID uuid.UUID, expectedVersion int, idempotencyKey string) (dto.EvaluationResponse, error)

func (h *EvaluationHandler) transition(c *fiber.Ctx, fallback, message string, apply evaluationTransition) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}
	evaluationID, err := parseUUIDParam(c, "evaluationID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid evaluation id")
	}

	expectedVersion, err := utils.ParseIfMatch(c.Get(fiber.HeaderIfMatch))
	if err != nil {
		return respondServiceError(c, logger, err, "invalid precondition")
	}

	evaluation, err := apply(c.UserContext(), actorFromContext(c), cycleID, evaluationID, expectedVersion, idempotencyKey(c))
	if err != nil {
		return respondServiceError(c, logger, err, fallback)
	}

	c.Set(fiber.HeaderETag, utils.ETagValue(evaluation.Version))
	return utils.SendSuccess(c, message, evaluation)
}
