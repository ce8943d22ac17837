package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// UserHandler exposes the authenticated user's own profile.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register wires the profile route.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	userID := userIDFromContext(c)
	if userID == uuid.Nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	profile, err := h.service.Me(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}
