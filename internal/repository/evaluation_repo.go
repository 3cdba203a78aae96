package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// EvaluationFilter narrows evaluation listings; any combination of fields
// may be set.
type EvaluationFilter struct {
	FormID      *uint
	ProfessorID *uint
	StudentID   *uint
	GroupID     *uint
	SubGroupID  *uint
	PromotionID *uint
	Page        int
	Limit       int
}

// EvaluationRepository defines persistence operations for evaluations and
// their per-line scores.
type EvaluationRepository interface {
	List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error)
	ListByForm(ctx context.Context, formID uint) ([]models.Evaluation, error)
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
	ReplaceScores(ctx context.Context, evaluation *models.Evaluation, scores []models.Score) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Preload("Form").
		Preload("Student").
		Preload("Group").
		Preload("SubGroup").
		Preload("Promotion").
		Preload("TargetStudents").
		Preload("Scores")
}

func applyEvaluationFilter(query *gorm.DB, filter EvaluationFilter) *gorm.DB {
	if filter.FormID != nil {
		query = query.Where("form_id = ?", *filter.FormID)
	}
	if filter.ProfessorID != nil {
		query = query.Where("professor_id = ?", *filter.ProfessorID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.SubGroupID != nil {
		query = query.Where("sub_group_id = ?", *filter.SubGroupID)
	}
	if filter.PromotionID != nil {
		query = query.Where("promotion_id = ?", *filter.PromotionID)
	}
	return query
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error) {
	countQuery := applyEvaluationFilter(r.db.WithContext(ctx).Model(&models.Evaluation{}), filter)

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applyEvaluationFilter(r.baseQuery(ctx), filter)

	var evaluations []models.Evaluation
	if err := query.
		Order("created_at DESC").
		Offset(pageOffset(filter.Page, filter.Limit)).Limit(filter.Limit).
		Find(&evaluations).Error; err != nil {
		return nil, 0, err
	}

	return evaluations, total, nil
}

func (r *evaluationRepository) ListByForm(ctx context.Context, formID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.baseQuery(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.baseQuery(ctx).First(&evaluation, id).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).
		Omit("Scores", "TargetStudents", "Form", "Student", "Group", "SubGroup", "Promotion").
		Save(evaluation).Error
}

// ReplaceScores swaps the evaluation's score rows atomically together with
// the evaluation fields themselves.
func (r *evaluationRepository) ReplaceScores(ctx context.Context, evaluation *models.Evaluation, scores []models.Score) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("evaluation_id = ?", evaluation.ID).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		for i := range scores {
			scores[i].ID = 0
			scores[i].EvaluationID = evaluation.ID
			if err := tx.Create(&scores[i]).Error; err != nil {
				return err
			}
		}
		evaluation.Scores = scores
		return tx.
			Omit("Scores", "TargetStudents", "Form", "Student", "Group", "SubGroup", "Promotion").
			Save(evaluation).Error
	})
}

func (r *evaluationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var evaluation models.Evaluation
		if err := tx.First(&evaluation, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&evaluation).Association("TargetStudents").Clear(); err != nil {
			return err
		}
		if err := tx.Where("evaluation_id = ?", evaluation.ID).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		return tx.Delete(&evaluation).Error
	})
}

func (r *evaluationRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).Count(&total).Error
	return total, err
}
