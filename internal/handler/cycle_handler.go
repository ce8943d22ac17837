package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// CycleHandler exposes review cycle management endpoints.
type CycleHandler struct {
	service   service.CycleService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCycleHandler constructs the handler.
func NewCycleHandler(service service.CycleService, validator *validator.Validate, logger zerolog.Logger) *CycleHandler {
	return &CycleHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "cycle_handler").Logger(),
	}
}

// Register wires routes for cycles. Lifecycle mutations additionally
// pass the adminOnly guard.
func (h *CycleHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", adminOnly, h.create)
	router.Get("/:cycleID", h.get)
	router.Patch("/:cycleID", adminOnly, h.update)
	router.Post("/:cycleID/activate", adminOnly, h.activate)
	router.Post("/:cycleID/close", adminOnly, h.close)
}

func (h *CycleHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycles, err := h.service.List(c.UserContext())
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list cycles")
	}
	return utils.SendSuccess(c, "cycles retrieved", cycles)
}

func (h *CycleHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	cycle, err := h.service.Get(c.UserContext(), cycleID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to get cycle")
	}
	return utils.SendSuccess(c, "cycle retrieved", cycle)
}

func (h *CycleHandler) create(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var payload dto.CycleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle payload")
	}

	cycle, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to create cycle")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "cycle created", cycle)
}

func (h *CycleHandler) update(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	var payload dto.CycleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle payload")
	}

	cycle, err := h.service.Update(c.UserContext(), actorFromContext(c), cycleID, payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to update cycle")
	}
	return utils.SendSuccess(c, "cycle updated", cycle)
}

func (h *CycleHandler) activate(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	cycle, err := h.service.Activate(c.UserContext(), actorFromContext(c), cycleID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to activate cycle")
	}
	return utils.SendSuccess(c, "cycle activated", cycle)
}

func (h *CycleHandler) close(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	cycleID, err := parseUUIDParam(c, "cycleID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid cycle id")
	}

	cycle, err := h.service.Close(c.UserContext(), actorFromContext(c), cycleID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to close cycle")
	}
	return utils.SendSuccess(c, "cycle closed", cycle)
}
