package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// EmployeeHandler exposes the employee directory.
type EmployeeHandler struct {
	service service.EmployeeService
	logger  zerolog.Logger
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(service service.EmployeeService, logger zerolog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		logger:  logger.With().Str("component", "employee_handler").Logger(),
	}
}

// Register wires routes for employees.
func (h *EmployeeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:employeeID", h.get)
}

func (h *EmployeeHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	result, err := h.service.List(c.UserContext(), repository.EmployeeFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list employees")
	}
	return utils.SendSuccess(c, "employees retrieved", result)
}

func (h *EmployeeHandler) get(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	employeeID, err := parseUUIDParam(c, "employeeID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid employee id")
	}

	employee, err := h.service.Get(c.UserContext(), employeeID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to get employee")
	}
	return utils.SendSuccess(c, "employee retrieved", employee)
}
