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

// PromotionHandler wires promotion HTTP routes.
type PromotionHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

// NewPromotionHandler constructs the handler.
func NewPromotionHandler(service service.PromotionService, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		logger:  logger.With().Str("component", "promotion_handler").Logger(),
	}
}

// Register attaches promotion endpoints to the router group. Reads are open
// to any authenticated user; cohort mutations stay admin-only.
func (h *PromotionHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	adminOnly = orPassthrough(adminOnly)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", adminOnly, h.create)
	router.Patch("/:id", adminOnly, h.update)
	router.Delete("/:id", adminOnly, h.delete)
}

func (h *PromotionHandler) list(c *fiber.Ctx) error {
	page := dto.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	}

	promotions, err := h.service.List(c.Context(), page)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "promotions retrieved", promotions)
}

func (h *PromotionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	promotion, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "promotion retrieved", promotion)
}

func (h *PromotionHandler) create(c *fiber.Ctx) error {
	var payload dto.PromotionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	promotion, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "promotion created", promotion)
}

func (h *PromotionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PromotionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	promotion, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "promotion updated", promotion)
}

func (h *PromotionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "promotion deleted", fiber.Map{"id": id})
}

func (h *PromotionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrPromotionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "promotion not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *PromotionHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
