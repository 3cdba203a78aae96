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

// Sentinel errors for group use cases.
var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrGroupHasSubGroups = errors.New("group still has subgroups")
)

// GroupService exposes group use cases.
type GroupService interface {
	Create(ctx context.Context, payload dto.GroupCreateRequest) (dto.GroupResponse, error)
	Update(ctx context.Context, id uint, payload dto.GroupUpdateRequest) (dto.GroupResponse, error)
	List(ctx context.Context, promotionID *uint, page dto.PageRequest) (dto.GroupListResponse, error)
	Get(ctx context.Context, id uint) (dto.GroupResponse, error)
	Delete(ctx context.Context, id uint) error
}

type groupService struct {
	groups     repository.GroupRepository
	promotions repository.PromotionRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewGroupService builds a new group service.
func NewGroupService(
	groups repository.GroupRepository,
	promotions repository.PromotionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) GroupService {
	return &groupService{
		groups:     groups,
		promotions: promotions,
		validator:  validate,
		logger:     logger.With().Str("component", "group_service").Logger(),
	}
}

func (s *groupService) Create(ctx context.Context, payload dto.GroupCreateRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	if _, err := s.promotions.GetByID(ctx, payload.PromotionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrPromotionNotFound
		}
		return dto.GroupResponse{}, err
	}

	group := models.Group{
		Name:        payload.Name,
		Description: payload.Description,
		PromotionID: payload.PromotionID,
	}
	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.logger.Info().
		Uint("group_id", group.ID).
		Uint("promotion_id", group.PromotionID).
		Msg("group created")

	return dto.NewGroupResponse(group), nil
}

func (s *groupService) Update(ctx context.Context, id uint, payload dto.GroupUpdateRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	if payload.Name != nil {
		group.Name = *payload.Name
	}
	if payload.Description != nil {
		group.Description = *payload.Description
	}
	if payload.PromotionID != nil && *payload.PromotionID != group.PromotionID {
		if _, err := s.promotions.GetByID(ctx, *payload.PromotionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.GroupResponse{}, ErrPromotionNotFound
			}
			return dto.GroupResponse{}, err
		}
		group.PromotionID = *payload.PromotionID
	}

	if err := s.groups.Update(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	return dto.NewGroupResponse(group), nil
}

func (s *groupService) List(ctx context.Context, promotionID *uint, page dto.PageRequest) (dto.GroupListResponse, error) {
	page.Normalize()

	groups, total, err := s.groups.List(ctx, repository.GroupFilter{
		PromotionID: promotionID,
		Page:        page.Page,
		Limit:       page.Limit,
	})
	if err != nil {
		return dto.GroupListResponse{}, err
	}

	return dto.GroupListResponse{
		Items:      dto.NewGroupResponseSlice(groups),
		Pagination: dto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func (s *groupService) Get(ctx context.Context, id uint) (dto.GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	return dto.NewGroupResponse(group), nil
}

// Delete refuses to remove a group that still owns subgroups; callers must
// delete or re-parent them first.
func (s *groupService) Delete(ctx context.Context, id uint) error {
	count, err := s.groups.SubGroupCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrGroupHasSubGroups
	}

	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	s.logger.Info().Uint("group_id", id).Msg("group deleted")
	return nil
}
