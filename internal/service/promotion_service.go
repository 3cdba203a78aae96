package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// ErrPromotionNotFound is returned for lookups of missing promotions.
var ErrPromotionNotFound = errors.New("promotion not found")

// PromotionService exposes promotion use cases.
type PromotionService interface {
	Create(ctx context.Context, payload dto.PromotionCreateRequest) (dto.PromotionResponse, error)
	Update(ctx context.Context, id uint, payload dto.PromotionUpdateRequest) (dto.PromotionResponse, error)
	List(ctx context.Context, page dto.PageRequest) (dto.PromotionListResponse, error)
	Get(ctx context.Context, id uint) (dto.PromotionResponse, error)
	Delete(ctx context.Context, id uint) error
}

type promotionService struct {
	promotions repository.PromotionRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewPromotionService builds a new promotion service.
func NewPromotionService(promotions repository.PromotionRepository, validate *validator.Validate, logger zerolog.Logger) PromotionService {
	return &promotionService{
		promotions: promotions,
		validator:  validate,
		logger:     logger.With().Str("component", "promotion_service").Logger(),
	}
}

func (s *promotionService) Create(ctx context.Context, payload dto.PromotionCreateRequest) (dto.PromotionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PromotionResponse{}, err
	}

	promotion := models.Promotion{
		Name:        payload.Name,
		Year:        payload.Year,
		Description: payload.Description,
	}
	if err := s.promotions.Create(ctx, &promotion); err != nil {
		return dto.PromotionResponse{}, err
	}

	s.logger.Info().Uint("promotion_id", promotion.ID).Msg("promotion created")
	return dto.NewPromotionResponse(promotion), nil
}

func (s *promotionService) Update(ctx context.Context, id uint, payload dto.PromotionUpdateRequest) (dto.PromotionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PromotionResponse{}, err
	}

	promotion, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PromotionResponse{}, ErrPromotionNotFound
		}
		return dto.PromotionResponse{}, err
	}

	if payload.Name != nil {
		promotion.Name = *payload.Name
	}
	if payload.Year != nil {
		promotion.Year = *payload.Year
	}
	if payload.Description != nil {
		promotion.Description = *payload.Description
	}

	if err := s.promotions.Update(ctx, &promotion); err != nil {
		return dto.PromotionResponse{}, err
	}

	return dto.NewPromotionResponse(promotion), nil
}

func (s *promotionService) List(ctx context.Context, page dto.PageRequest) (dto.PromotionListResponse, error) {
	page.Normalize()

	promotions, total, err := s.promotions.List(ctx, page.Page, page.Limit)
	if err != nil {
		return dto.PromotionListResponse{}, err
	}

	return dto.PromotionListResponse{
		Items:      dto.NewPromotionResponseSlice(promotions),
		Pagination: dto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func (s *promotionService) Get(ctx context.Context, id uint) (dto.PromotionResponse, error) {
	promotion, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PromotionResponse{}, ErrPromotionNotFound
		}
		return dto.PromotionResponse{}, err
	}

	return dto.NewPromotionResponse(promotion), nil
}

func (s *promotionService) Delete(ctx context.Context, id uint) error {
	if err := s.promotions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromotionNotFound
		}
		return err
	}

	s.logger.Info().Uint("promotion_id", id).Msg("promotion deleted")
	return nil
}
