package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// ErrUnknownEntityKind is returned for membership lookups on an unsupported
// association level.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

// RosterService resolves the student membership of an organizational entity.
type RosterService interface {
	MembersOf(ctx context.Context, kind string, id uint) ([]models.Student, error)
}

type rosterService struct {
	students   repository.StudentRepository
	groups     repository.GroupRepository
	subGroups  repository.SubGroupRepository
	promotions repository.PromotionRepository
	logger     zerolog.Logger
}

// NewRosterService builds a roster resolver. The entity repositories back
// the existence checks: an unknown parent id is an error, never an empty
// roster.
func NewRosterService(
	students repository.StudentRepository,
	groups repository.GroupRepository,
	subGroups repository.SubGroupRepository,
	promotions repository.PromotionRepository,
	logger zerolog.Logger,
) RosterService {
	return &rosterService{
		students:   students,
		groups:     groups,
		subGroups:  subGroups,
		promotions: promotions,
		logger:     logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) MembersOf(ctx context.Context, kind string, id uint) ([]models.Student, error) {
	switch kind {
	case models.AssociationStudent:
		student, err := s.students.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundAs(err, ErrStudentNotFound)
		}
		return []models.Student{student}, nil
	case models.AssociationGroup:
		if _, err := s.groups.GetByID(ctx, id); err != nil {
			return nil, notFoundAs(err, ErrGroupNotFound)
		}
		return s.students.ListByGroup(ctx, id)
	case models.AssociationSubGroup:
		if _, err := s.subGroups.GetByID(ctx, id); err != nil {
			return nil, notFoundAs(err, ErrSubGroupNotFound)
		}
		return s.students.ListBySubGroup(ctx, id)
	case models.AssociationPromotion:
		if _, err := s.promotions.GetByID(ctx, id); err != nil {
			return nil, notFoundAs(err, ErrPromotionNotFound)
		}
		return s.students.ListByPromotion(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}
}

// notFoundAs maps a missing row onto the per-entity sentinel.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
