package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/service"
	"github.com/elise-dlc/evalio-api/internal/utils"
)

// SubGroupHandler wires subgroup HTTP routes.
type SubGroupHandler struct {
	service service.SubGroupService
	logger  zerolog.Logger
}

// NewSubGroupHandler constructs the handler.
func NewSubGroupHandler(service service.SubGroupService, logger zerolog.Logger) *SubGroupHandler {
	return &SubGroupHandler{
		service: service,
		logger:  logger.With().Str("component", "subgroup_handler").Logger(),
	}
}

// Register attaches subgroup endpoints to the router group. Deletion is
// admin-only.
func (h *SubGroupHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", orPassthrough(adminOnly), h.delete)
}

func (h *SubGroupHandler) list(c *fiber.Ctx) error {
	groupID, err := parseUintQuery(c, "group")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subGroups, err := h.service.List(c.Context(), groupID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "subgroups retrieved", subGroups)
}

func (h *SubGroupHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subGroup, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subgroup retrieved", subGroup)
}

func (h *SubGroupHandler) create(c *fiber.Ctx) error {
	var payload dto.SubGroupCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subGroup, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subgroup created", subGroup)
}

func (h *SubGroupHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubGroupUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subGroup, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subgroup updated", subGroup)
}

func (h *SubGroupHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subgroup deleted", fiber.Map{"id": id})
}

func (h *SubGroupHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "subgroup not found")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *SubGroupHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
