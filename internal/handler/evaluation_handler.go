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

// EvaluationHandler wires evaluation HTTP routes.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints to the router group. Deletion is
// admin-only.
func (h *EvaluationHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Post("/bulk", h.bulkCreate)
	router.Post("/validate-scores", h.validateScores)
	router.Patch("/:id", h.update)
	router.Delete("/:id", orPassthrough(adminOnly), h.delete)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	var payload dto.EvaluationListRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	evaluations, err := h.service.List(c.Context(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	var payload dto.EvaluationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.ProfessorID == 0 {
		if professorID, ok := currentUserID(c); ok {
			payload.ProfessorID = professorID
		}
	}

	evaluation, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation recorded", evaluation)
}

func (h *EvaluationHandler) bulkCreate(c *fiber.Ctx) error {
	var payload dto.BulkEvaluationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.ProfessorID == 0 {
		if professorID, ok := currentUserID(c); ok {
			payload.ProfessorID = professorID
		}
	}

	result, err := h.service.BulkCreate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	status := fiber.StatusCreated
	if result.Created == 0 {
		status = fiber.StatusUnprocessableEntity
	} else if result.Failed > 0 {
		status = fiber.StatusMultiStatus
	}

	return utils.SendSuccessWithStatus(c, status, "bulk evaluations processed", result)
}

func (h *EvaluationHandler) validateScores(c *fiber.Ctx) error {
	var payload dto.ValidateScoresRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.ValidateScores(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scores validated", result)
}

func (h *EvaluationHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation updated", evaluation)
}

func (h *EvaluationHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation deleted", fiber.Map{"id": id})
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrFormNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "form not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case service.ViolationKind(err) != "":
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *EvaluationHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
