package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/middleware"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func userIDFromContext(c *fiber.Ctx) uuid.UUID {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
		if raw, ok := v.(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				return id
			}
		}
	}
	return uuid.Nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{UserID: userIDFromContext(c)}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// respondServiceError maps the service error taxonomy onto HTTP status
// codes. Anything unrecognized is logged and reported as a 500 with the
// fallback message, never the raw error.
func respondServiceError(c *fiber.Ctx, logger *zerolog.Logger, err error, fallback string) error {
	var validationErr *service.ValidationError
	var staleErr *service.StaleVersionError
	var transitionErr *service.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		return utils.SendValidationError(c, fiber.StatusBadRequest, validationErr.Message, validationErr.Errors)

	case errors.As(err, &staleErr):
		return utils.SendErrorWithData(c, fiber.StatusConflict, staleErr.Error(), fiber.Map{
			"expected": staleErr.Expected,
			"got":      staleErr.Got,
		})

	case errors.As(err, &transitionErr):
		return utils.SendError(c, fiber.StatusConflict, transitionErr.Error())

	case errors.Is(err, utils.ErrPreconditionRequired):
		return utils.SendError(c, fiber.StatusPreconditionRequired, err.Error())

	case errors.Is(err, utils.ErrBadPrecondition):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrNotReviewer),
		errors.Is(err, service.ErrNotApprover):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrCycleNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrEvaluationNotFound),
		errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrFieldDefNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrCycleNotActive),
		errors.Is(err, service.ErrFormNotAssigned),
		errors.Is(err, service.ErrFormInactive),
		errors.Is(err, service.ErrDuplicateEntity),
		errors.Is(err, service.ErrIdempotencyKeyReuse),
		errors.Is(err, service.ErrIdempotencyInFlight):
		return utils.SendError(c, fiber.StatusConflict, err.Error())

	default:
		logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
