package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// PromotionCreateRequest describes the payload for creating a promotion.
type PromotionCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Year        string `json:"year" validate:"required,min=1"`
	Description string `json:"description"`
}

// PromotionUpdateRequest captures partial update payloads for promotions.
type PromotionUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Year        *string `json:"year" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

// PromotionResponse is the serialized representation returned to clients.
type PromotionResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Year        string          `json:"year"`
	Description string          `json:"description"`
	Groups      []GroupResponse `json:"groups,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PromotionListResponse wraps a paginated promotion listing.
type PromotionListResponse struct {
	Items      []PromotionResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// NewPromotionResponse converts a model into a DTO.
func NewPromotionResponse(model models.Promotion) PromotionResponse {
	response := PromotionResponse{
		ID:          model.ID,
		Name:        model.Name,
		Year:        model.Year,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, group := range model.Groups {
		response.Groups = append(response.Groups, NewGroupResponse(group))
	}
	return response
}

// NewPromotionResponseSlice converts a slice of models into DTOs.
func NewPromotionResponseSlice(promotions []models.Promotion) []PromotionResponse {
	responses := make([]PromotionResponse, 0, len(promotions))
	for _, promotion := range promotions {
		responses = append(responses, NewPromotionResponse(promotion))
	}
	return responses
}
