package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	FirstName     string `json:"first_name" validate:"required,min=1"`
	LastName      string `json:"last_name" validate:"required,min=1"`
	YearLevel     string `json:"year_level" validate:"required,oneof=BUT1 BUT2 BUT3"`
	StudentNumber string `json:"student_number" validate:"required,min=1"`
	PromotionIDs  []uint `json:"promotion_ids"`
	GroupIDs      []uint `json:"group_ids"`
}

// StudentUpdateRequest captures partial update payloads for students. The
// Current* pointers, when set, must reference a member of the corresponding
// membership set.
type StudentUpdateRequest struct {
	FirstName          *string `json:"first_name" validate:"omitempty,min=1"`
	LastName           *string `json:"last_name" validate:"omitempty,min=1"`
	YearLevel          *string `json:"year_level" validate:"omitempty,oneof=BUT1 BUT2 BUT3"`
	StudentNumber      *string `json:"student_number" validate:"omitempty,min=1"`
	PromotionIDs       []uint  `json:"promotion_ids"`
	GroupIDs           []uint  `json:"group_ids"`
	CurrentPromotionID *uint   `json:"current_promotion_id"`
	CurrentGroupID     *uint   `json:"current_group_id"`
}

// StudentResponse is the serialized representation returned to clients.
type StudentResponse struct {
	ID                 uint      `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	YearLevel          string    `json:"year_level"`
	StudentNumber      string    `json:"student_number"`
	PromotionIDs       []uint    `json:"promotion_ids,omitempty"`
	GroupIDs           []uint    `json:"group_ids,omitempty"`
	SubGroupIDs        []uint    `json:"subgroup_ids,omitempty"`
	CurrentPromotionID *uint     `json:"current_promotion_id,omitempty"`
	CurrentGroupID     *uint     `json:"current_group_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	response := StudentResponse{
		ID:                 model.ID,
		FirstName:          model.FirstName,
		LastName:           model.LastName,
		YearLevel:          model.YearLevel,
		StudentNumber:      model.StudentNumber,
		CurrentPromotionID: model.CurrentPromotionID,
		CurrentGroupID:     model.CurrentGroupID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
	for _, promotion := range model.Promotions {
		response.PromotionIDs = append(response.PromotionIDs, promotion.ID)
	}
	for _, group := range model.Groups {
		response.GroupIDs = append(response.GroupIDs, group.ID)
	}
	for _, subGroup := range model.SubGroups {
		response.SubGroupIDs = append(response.SubGroupIDs, subGroup.ID)
	}
	return response
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
