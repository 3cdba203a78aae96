package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// LineRequest describes one scoring criterion inside a section payload. UID
// is optional: clients echo it back when editing a form so historical
// evaluations keep resolving; omitted UIDs get a fresh identifier.
type LineRequest struct {
	UID          string  `json:"uid"`
	Title        string  `json:"title" validate:"required,min=1"`
	MaxScore     float64 `json:"max_score" validate:"gte=0"`
	Type         string  `json:"type" validate:"required,oneof=binary scale"`
	NotationType string  `json:"notation_type" validate:"required,oneof=common individual mixed"`
}

// SectionRequest describes one rubric section payload.
type SectionRequest struct {
	Title string        `json:"title" validate:"required,min=1"`
	Lines []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// FormCreateRequest describes the payload for creating a rubric form.
// Exactly one of StudentIDs / GroupIDs / SubGroupIDs / PromotionID must be
// populated, matching AssociationType.
type FormCreateRequest struct {
	Title           string           `json:"title" validate:"required,min=1"`
	AssociationType string           `json:"association_type" validate:"required,oneof=student group subgroup promotion"`
	StudentIDs      []uint           `json:"student_ids"`
	GroupIDs        []uint           `json:"group_ids"`
	SubGroupIDs     []uint           `json:"subgroup_ids"`
	PromotionID     *uint            `json:"promotion_id"`
	Sections        []SectionRequest `json:"sections" validate:"required,min=1,dive"`
	ValidFrom       string           `json:"valid_from" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ValidTo         string           `json:"valid_to" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// FormUpdateRequest captures partial update payloads for forms. Changing
// AssociationType clears the other three target collections.
type FormUpdateRequest struct {
	Title           *string          `json:"title" validate:"omitempty,min=1"`
	AssociationType *string          `json:"association_type" validate:"omitempty,oneof=student group subgroup promotion"`
	StudentIDs      []uint           `json:"student_ids"`
	GroupIDs        []uint           `json:"group_ids"`
	SubGroupIDs     []uint           `json:"subgroup_ids"`
	PromotionID     *uint            `json:"promotion_id"`
	Sections        []SectionRequest `json:"sections" validate:"omitempty,min=1,dive"`
	ValidFrom       *string          `json:"valid_from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ValidTo         *string          `json:"valid_to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// FormAssignRequest re-targets an existing form at an entity level.
type FormAssignRequest struct {
	Level    string `json:"level" validate:"required,oneof=student group subgroup promotion"`
	TargetID uint   `json:"target_id" validate:"required"`
}

// FormListRequest defines query parameters for listing forms.
type FormListRequest struct {
	AssociationType string `query:"association_type"`
	ProfessorID     *uint  `query:"professor"`
	OnlyValid       bool   `query:"valid"`
	Page            int    `query:"page"`
	Limit           int    `query:"limit"`
}

// LineResponse serializes a scoring criterion.
type LineResponse struct {
	ID           uint    `json:"id"`
	UID          string  `json:"uid"`
	Title        string  `json:"title"`
	MaxScore     float64 `json:"max_score"`
	Type         string  `json:"type"`
	NotationType string  `json:"notation_type"`
}

// SectionResponse serializes a rubric section.
type SectionResponse struct {
	ID    uint           `json:"id"`
	Title string         `json:"title"`
	Lines []LineResponse `json:"lines"`
}

// FormResponse is the serialized representation returned to clients.
type FormResponse struct {
	ID              uint               `json:"id"`
	ProfessorID     uint               `json:"professor_id"`
	Title           string             `json:"title"`
	AssociationType string             `json:"association_type"`
	ValidFrom       time.Time          `json:"valid_from"`
	ValidTo         time.Time          `json:"valid_to"`
	Sections        []SectionResponse  `json:"sections"`
	Students        []StudentResponse  `json:"students,omitempty"`
	Groups          []GroupResponse    `json:"groups,omitempty"`
	SubGroups       []SubGroupResponse `json:"subgroups,omitempty"`
	Promotion       *PromotionResponse `json:"promotion,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// FormListResponse wraps a paginated form listing.
type FormListResponse struct {
	Items      []FormResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// CriterionResponse is one entry of the flattened line listing.
type CriterionResponse struct {
	LineResponse
	SectionTitle string `json:"section_title"`
}

// TemplateResponse carries the export header row of max scores per line.
type TemplateResponse struct {
	FormID  uint      `json:"form_id"`
	Title   string    `json:"title"`
	Headers []string  `json:"headers"`
	Maxima  []float64 `json:"maxima"`
}

// NewLineResponse converts a model into a DTO.
func NewLineResponse(model models.Line) LineResponse {
	return LineResponse{
		ID:           model.ID,
		UID:          model.UID,
		Title:        model.Title,
		MaxScore:     model.MaxScore,
		Type:         model.Type,
		NotationType: model.NotationType,
	}
}

// NewSectionResponse converts a model into a DTO.
func NewSectionResponse(model models.Section) SectionResponse {
	response := SectionResponse{
		ID:    model.ID,
		Title: model.Title,
		Lines: make([]LineResponse, 0, len(model.Lines)),
	}
	for _, line := range model.Lines {
		response.Lines = append(response.Lines, NewLineResponse(line))
	}
	return response
}

// NewFormResponse converts a model into a DTO.
func NewFormResponse(model models.Form) FormResponse {
	response := FormResponse{
		ID:              model.ID,
		ProfessorID:     model.ProfessorID,
		Title:           model.Title,
		AssociationType: model.AssociationType,
		ValidFrom:       model.ValidFrom,
		ValidTo:         model.ValidTo,
		Sections:        make([]SectionResponse, 0, len(model.Sections)),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	for _, section := range model.Sections {
		response.Sections = append(response.Sections, NewSectionResponse(section))
	}
	for _, student := range model.Students {
		response.Students = append(response.Students, NewStudentResponse(student))
	}
	for _, group := range model.Groups {
		response.Groups = append(response.Groups, NewGroupResponse(group))
	}
	for _, subGroup := range model.SubGroups {
		response.SubGroups = append(response.SubGroups, NewSubGroupResponse(subGroup))
	}
	if model.Promotion != nil {
		promotion := NewPromotionResponse(*model.Promotion)
		response.Promotion = &promotion
	}
	return response
}

// NewFormResponseSlice converts a slice of models into DTOs.
func NewFormResponseSlice(forms []models.Form) []FormResponse {
	responses := make([]FormResponse, 0, len(forms))
	for _, form := range forms {
		responses = append(responses, NewFormResponse(form))
	}
	return responses
}
