package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// AssignmentHandler exposes review assignment endpoints under a cycle.
type AssignmentHandler struct {
	service   service.AssignmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register wires routes for assignments. Bulk creation additionally
// passes the adminOnly guard.
func (h *AssignmentHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/:cycleID/assignments", h.list)
	router.Post("/:cycleID/assignments", adminOnly, h.bulkCreate)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	filter := repository.AssignmentFilter{
		Status: strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("reviewer_employee_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid reviewer employee id")
		}
		filter.ReviewerEmployeeID = &id
	}
	if raw := strings.TrimSpace(c.Query("subject_employee_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid subject employee id")
		}
		filter.SubjectEmployeeID = &id
	}

	assignments, err := h.service.List(c.UserContext(), cycleID, filter)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list assignments")
	}
	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) bulkCreate(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	var payload dto.AssignmentBulkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment payload")
	}

	assignments, err := h.service.BulkCreate(c.UserContext(), actorFromContext(c), cycleID, payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to create assignments")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignments created", assignments)
}
