package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// GroupCreateRequest describes the payload for creating a group.
type GroupCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	PromotionID uint   `json:"promotion_id" validate:"required"`
	Description string `json:"description"`
}

// GroupUpdateRequest captures partial update payloads for groups. Supplying
// PromotionID re-parents the group onto another promotion.
type GroupUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	PromotionID *uint   `json:"promotion_id"`
	Description *string `json:"description"`
}

// GroupResponse is the serialized representation returned to clients.
type GroupResponse struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	PromotionID uint                `json:"promotion_id"`
	Promotion   *PromotionResponse  `json:"promotion,omitempty"`
	SubGroups   []SubGroupResponse  `json:"subgroups,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// GroupListResponse wraps a paginated group listing.
type GroupListResponse struct {
	Items      []GroupResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewGroupResponse converts a model into a DTO.
func NewGroupResponse(model models.Group) GroupResponse {
	response := GroupResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		PromotionID: model.PromotionID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.Promotion.ID != 0 {
		promotion := NewPromotionResponse(model.Promotion)
		response.Promotion = &promotion
	}
	for _, subGroup := range model.SubGroups {
		response.SubGroups = append(response.SubGroups, NewSubGroupResponse(subGroup))
	}
	return response
}

// NewGroupResponseSlice converts a slice of models into DTOs.
func NewGroupResponseSlice(groups []models.Group) []GroupResponse {
	responses := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, NewGroupResponse(group))
	}
	return responses
}
