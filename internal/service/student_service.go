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

// Sentinel errors for student use cases.
var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrCurrentNotMember = errors.New("current pointer must reference a membership")
)

// StudentService exposes student use cases.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	List(ctx context.Context, filter repository.StudentFilter) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type studentService struct {
	students   repository.StudentRepository
	promotions repository.PromotionRepository
	groups     repository.GroupRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewStudentService builds a new student service.
func NewStudentService(
	students repository.StudentRepository,
	promotions repository.PromotionRepository,
	groups repository.GroupRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:   students,
		promotions: promotions,
		groups:     groups,
		validator:  validate,
		logger:     logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		FirstName:     payload.FirstName,
		LastName:      payload.LastName,
		YearLevel:     payload.YearLevel,
		StudentNumber: payload.StudentNumber,
	}

	for _, promotionID := range payload.PromotionIDs {
		promotion, err := s.promotions.GetByID(ctx, promotionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrPromotionNotFound
			}
			return dto.StudentResponse{}, err
		}
		student.Promotions = append(student.Promotions, promotion)
	}
	for _, groupID := range payload.GroupIDs {
		group, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrGroupNotFound
			}
			return dto.StudentResponse{}, err
		}
		student.Groups = append(student.Groups, group)
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().
		Uint("student_id", student.ID).
		Str("student_number", student.StudentNumber).
		Msg("student created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	if payload.FirstName != nil {
		student.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		student.LastName = *payload.LastName
	}
	if payload.YearLevel != nil {
		student.YearLevel = *payload.YearLevel
	}
	if payload.StudentNumber != nil {
		student.StudentNumber = *payload.StudentNumber
	}

	if payload.PromotionIDs != nil {
		student.Promotions = make([]models.Promotion, 0, len(payload.PromotionIDs))
		for _, promotionID := range payload.PromotionIDs {
			promotion, err := s.promotions.GetByID(ctx, promotionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return dto.StudentResponse{}, ErrPromotionNotFound
				}
				return dto.StudentResponse{}, err
			}
			student.Promotions = append(student.Promotions, promotion)
		}
	}
	if payload.GroupIDs != nil {
		student.Groups = make([]models.Group, 0, len(payload.GroupIDs))
		for _, groupID := range payload.GroupIDs {
			group, err := s.groups.GetByID(ctx, groupID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return dto.StudentResponse{}, ErrGroupNotFound
				}
				return dto.StudentResponse{}, err
			}
			student.Groups = append(student.Groups, group)
		}
	}

	if payload.CurrentPromotionID != nil {
		if !student.InPromotion(*payload.CurrentPromotionID) {
			return dto.StudentResponse{}, ErrCurrentNotMember
		}
		student.CurrentPromotionID = payload.CurrentPromotionID
	}
	if payload.CurrentGroupID != nil {
		if !student.InGroup(*payload.CurrentGroupID) {
			return dto.StudentResponse{}, ErrCurrentNotMember
		}
		student.CurrentGroupID = payload.CurrentGroupID
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	updated, err := s.students.GetByID(ctx, student.ID)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(updated), nil
}

func (s *studentService) List(ctx context.Context, filter repository.StudentFilter) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.logger.Info().Uint("student_id", id).Msg("student deleted")
	return nil
}
