package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/service"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

// FormHandler exposes field definition and form template endpoints.
type FormHandler struct {
	service   service.FormService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFormHandler constructs the handler.
func NewFormHandler(service service.FormService, validator *validator.Validate, logger zerolog.Logger) *FormHandler {
	return &FormHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "form_handler").Logger(),
	}
}

// RegisterFields wires routes for field definitions.
func (h *FormHandler) RegisterFields(router fiber.Router) {
	router.Get("", h.listFieldDefinitions)
	router.Post("", h.createFieldDefinition)
}

// RegisterForms wires routes for form templates.
func (h *FormHandler) RegisterForms(router fiber.Router) {
	router.Get("", h.listTemplates)
	router.Post("", h.createTemplate)
	router.Get("/:formID", h.getTemplate)
	router.Put("/:formID/fields", h.attachFields)
}

func (h *FormHandler) listFieldDefinitions(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	fields, err := h.service.ListFieldDefinitions(c.UserContext())
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list field definitions")
	}
	return utils.SendSuccess(c, "field definitions retrieved", fields)
}

func (h *FormHandler) createFieldDefinition(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var payload dto.FieldDefinitionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid field definition payload")
	}

	field, err := h.service.CreateFieldDefinition(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to create field definition")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "field definition created", field)
}

func (h *FormHandler) listTemplates(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	forms, err := h.service.ListTemplates(c.UserContext())
	if err != nil {
		return respondServiceError(c, logger, err, "failed to list form templates")
	}
	return utils.SendSuccess(c, "form templates retrieved", forms)
}

func (h *FormHandler) createTemplate(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	var payload dto.FormTemplateCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form template payload")
	}

	form, err := h.service.CreateTemplate(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to create form template")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "form template created", form)
}

func (h *FormHandler) getTemplate(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	formID, err := parseUUIDParam(c, "formID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form id")
	}

	form, err := h.service.GetTemplate(c.UserContext(), formID)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to get form template")
	}
	return utils.SendSuccess(c, "form template retrieved", form)
}

func (h *FormHandler) attachFields(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	formID, err := parseUUIDParam(c, "formID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form id")
	}

	var payload []dto.FormFieldAttachRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(payload) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one field is required")
	}
	for _, entry := range payload {
		if err := h.validator.Struct(entry); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid form field payload")
		}
	}

	form, err := h.service.AttachFields(c.UserContext(), actorFromContext(c), formID, payload)
	if err != nil {
		return respondServiceError(c, logger, err, "failed to attach form fields")
	}
	return utils.SendSuccess(c, "form fields updated", form)
}
