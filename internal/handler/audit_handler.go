package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// AuditHandler exposes the append-only audit trail.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register wires routes for audit events.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	filter := repository.AuditFilter{
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		Limit:      limit,
	}
	if raw := strings.TrimSpace(c.Query("entity_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
		}
		filter.EntityID = &id
	}

	events, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list audit events")
	}
	return utils.SendSuccess(c, "audit events retrieved", events)
}
