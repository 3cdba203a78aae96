package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// SubGroupCreateRequest describes the payload for creating a subgroup.
type SubGroupCreateRequest struct {
	Name       string `json:"name" validate:"required,min=1"`
	Type       string `json:"type" validate:"required,min=1"`
	GroupID    uint   `json:"group_id" validate:"required"`
	StudentIDs []uint `json:"student_ids"`
}

// SubGroupUpdateRequest captures partial update payloads for subgroups.
// Supplying StudentIDs replaces the member set; members removed here lose
// the subgroup from their own membership set as well.
type SubGroupUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	Type       *string `json:"type" validate:"omitempty,min=1"`
	StudentIDs []uint  `json:"student_ids"`
}

// SubGroupResponse is the serialized representation returned to clients.
type SubGroupResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	GroupID     uint              `json:"group_id"`
	PromotionID uint              `json:"promotion_id"`
	Students    []StudentResponse `json:"students,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SubGroupListResponse wraps a paginated subgroup listing.
type SubGroupListResponse struct {
	Items      []SubGroupResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewSubGroupResponse converts a model into a DTO.
func NewSubGroupResponse(model models.SubGroup) SubGroupResponse {
	response := SubGroupResponse{
		ID:          model.ID,
		Name:        model.Name,
		Type:        model.Type,
		GroupID:     model.GroupID,
		PromotionID: model.PromotionID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, student := range model.Students {
		response.Students = append(response.Students, NewStudentResponse(student))
	}
	return response
}

// NewSubGroupResponseSlice converts a slice of models into DTOs.
func NewSubGroupResponseSlice(subGroups []models.SubGroup) []SubGroupResponse {
	responses := make([]SubGroupResponse, 0, len(subGroups))
	for _, subGroup := range subGroups {
		responses = append(responses, NewSubGroupResponse(subGroup))
	}
	return responses
}
