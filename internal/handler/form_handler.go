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

// FormHandler wires rubric form HTTP routes, including the form-scoped
// statistics, export and scoring-context endpoints.
type FormHandler struct {
	forms       service.FormService
	stats       service.StatsService
	exports     service.ExportService
	evaluations service.EvaluationService
	logger      zerolog.Logger
}

// NewFormHandler constructs the handler.
func NewFormHandler(
	forms service.FormService,
	stats service.StatsService,
	exports service.ExportService,
	evaluations service.EvaluationService,
	logger zerolog.Logger,
) *FormHandler {
	return &FormHandler{
		forms:       forms,
		stats:       stats,
		exports:     exports,
		evaluations: evaluations,
		logger:      logger.With().Str("component", "form_handler").Logger(),
	}
}

// Register attaches form endpoints to the router group.
func (h *FormHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/assign", h.assign)
	router.Get("/:id/students", h.students)
	router.Get("/:id/criteria", h.criteria)
	router.Get("/:id/template", h.template)
	router.Get("/:id/stats", h.statistics)
	router.Get("/:id/export", h.export)
	router.Get("/:id/context", h.context)
}

func (h *FormHandler) list(c *fiber.Ctx) error {
	professorID, err := parseUintQuery(c, "professor")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	forms, err := h.forms.List(c.Context(), dto.FormListRequest{
		AssociationType: c.Query("association_type"),
		ProfessorID:     professorID,
		OnlyValid:       c.QueryBool("valid", false),
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", 10),
	})
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "forms retrieved", forms)
}

func (h *FormHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := h.forms.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form retrieved", form)
}

func (h *FormHandler) create(c *fiber.Ctx) error {
	var payload dto.FormCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	professorID, ok := currentUserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	form, err := h.forms.Create(c.Context(), professorID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "form created", form)
}

func (h *FormHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FormUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form, err := h.forms.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form updated", form)
}

func (h *FormHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.forms.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form deleted", fiber.Map{"id": id})
}

func (h *FormHandler) assign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FormAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form, err := h.forms.Assign(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form assigned", form)
}

func (h *FormHandler) students(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	students, err := h.forms.TargetStudents(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form students retrieved", students)
}

func (h *FormHandler) criteria(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	criteria, err := h.forms.Criteria(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form criteria retrieved", criteria)
}

func (h *FormHandler) template(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	template, err := h.forms.Template(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form template retrieved", template)
}

func (h *FormHandler) statistics(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	statistics, err := h.stats.FormStatistics(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form statistics retrieved", statistics)
}

func (h *FormHandler) export(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, filename, err := h.exports.FormCSV(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(payload)
}

func (h *FormHandler) context(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	context, err := h.evaluations.Context(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form context retrieved", context)
}

func (h *FormHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "form not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrSubGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "subgroup not found")
	case errors.Is(err, service.ErrPromotionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "promotion not found")
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidAssociation),
		errors.Is(err, service.ErrInvalidLineScore):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *FormHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

// currentUserID reads the authenticated user id placed by the JWT
// middleware.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}
