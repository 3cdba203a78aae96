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

// ErrSubGroupNotFound is returned for lookups of missing subgroups.
var ErrSubGroupNotFound = errors.New("subgroup not found")

// SubGroupService exposes subgroup use cases. Member changes go through
// ReplaceStudents so the subgroup side and the student side of the
// membership stay in step inside one transaction.
type SubGroupService interface {
	Create(ctx context.Context, payload dto.SubGroupCreateRequest) (dto.SubGroupResponse, error)
	Update(ctx context.Context, id uint, payload dto.SubGroupUpdateRequest) (dto.SubGroupResponse, error)
	List(ctx context.Context, groupID *uint) ([]dto.SubGroupResponse, error)
	Get(ctx context.Context, id uint) (dto.SubGroupResponse, error)
	Delete(ctx context.Context, id uint) error
}

type subGroupService struct {
	subGroups repository.SubGroupRepository
	groups    repository.GroupRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubGroupService builds a new subgroup service.
func NewSubGroupService(
	subGroups repository.SubGroupRepository,
	groups repository.GroupRepository,
	students repository.StudentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubGroupService {
	return &subGroupService{
		subGroups: subGroups,
		groups:    groups,
		students:  students,
		validator: validate,
		logger:    logger.With().Str("component", "subgroup_service").Logger(),
	}
}

func (s *subGroupService) Create(ctx context.Context, payload dto.SubGroupCreateRequest) (dto.SubGroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubGroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, payload.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubGroupResponse{}, ErrGroupNotFound
		}
		return dto.SubGroupResponse{}, err
	}

	members, err := s.resolveMembers(ctx, payload.StudentIDs)
	if err != nil {
		return dto.SubGroupResponse{}, err
	}

	subGroup := models.SubGroup{
		Name:        payload.Name,
		Type:        payload.Type,
		GroupID:     group.ID,
		PromotionID: group.PromotionID,
		Students:    members,
	}
	if err := s.subGroups.Create(ctx, &subGroup); err != nil {
		return dto.SubGroupResponse{}, err
	}

	s.logger.Info().
		Uint("subgroup_id", subGroup.ID).
		Uint("group_id", subGroup.GroupID).
		Int("members", len(members)).
		Msg("subgroup created")

	return dto.NewSubGroupResponse(subGroup), nil
}

func (s *subGroupService) Update(ctx context.Context, id uint, payload dto.SubGroupUpdateRequest) (dto.SubGroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubGroupResponse{}, err
	}

	subGroup, err := s.subGroups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubGroupResponse{}, ErrSubGroupNotFound
		}
		return dto.SubGroupResponse{}, err
	}

	if payload.Name != nil {
		subGroup.Name = *payload.Name
	}
	if payload.Type != nil {
		subGroup.Type = *payload.Type
	}

	if payload.StudentIDs != nil {
		members, err := s.resolveMembers(ctx, payload.StudentIDs)
		if err != nil {
			return dto.SubGroupResponse{}, err
		}
		if err := s.subGroups.ReplaceStudents(ctx, &subGroup, members); err != nil {
			return dto.SubGroupResponse{}, err
		}
	} else if err := s.subGroups.Update(ctx, &subGroup); err != nil {
		return dto.SubGroupResponse{}, err
	}

	updated, err := s.subGroups.GetByID(ctx, subGroup.ID)
	if err != nil {
		return dto.SubGroupResponse{}, err
	}
	return dto.NewSubGroupResponse(updated), nil
}

func (s *subGroupService) List(ctx context.Context, groupID *uint) ([]dto.SubGroupResponse, error) {
	var (
		subGroups []models.SubGroup
		err       error
	)
	if groupID != nil {
		subGroups, err = s.subGroups.ListByGroup(ctx, *groupID)
	} else {
		subGroups, err = s.subGroups.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	return dto.NewSubGroupResponseSlice(subGroups), nil
}

func (s *subGroupService) Get(ctx context.Context, id uint) (dto.SubGroupResponse, error) {
	subGroup, err := s.subGroups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubGroupResponse{}, ErrSubGroupNotFound
		}
		return dto.SubGroupResponse{}, err
	}

	return dto.NewSubGroupResponse(subGroup), nil
}

// Delete removes the subgroup and clears every member's link to it in the
// same transaction, so no student keeps a dangling membership.
func (s *subGroupService) Delete(ctx context.Context, id uint) error {
	if err := s.subGroups.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubGroupNotFound
		}
		return err
	}

	s.logger.Info().Uint("subgroup_id", id).Msg("subgroup deleted")
	return nil
}

func (s *subGroupService) resolveMembers(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	members, err := s.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(members) != len(ids) {
		return nil, ErrStudentNotFound
	}
	return members, nil
}
