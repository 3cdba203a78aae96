package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	YearLevel string
	GroupID   *uint
}

// StudentRepository defines persistence and membership operations for
// students. The membership queries back the entity directory: "students of
// group X", "students of subgroup Z", "students of promotion Y" (direct or
// through its groups).
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	ListByGroup(ctx context.Context, groupID uint) ([]models.Student, error)
	ListBySubGroup(ctx context.Context, subGroupID uint) ([]models.Student, error)
	ListByPromotion(ctx context.Context, promotionID uint) ([]models.Student, error)
	Count(ctx context.Context) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.YearLevel != "" {
		query = query.Where("year_level = ?", filter.YearLevel)
	}
	if filter.GroupID != nil {
		query = query.
			Joins("JOIN student_groups ON student_groups.student_id = students.id").
			Where("student_groups.group_id = ?", *filter.GroupID)
	}

	var students []models.Student
	if err := query.Order("last_name ASC, first_name ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("Promotions").
		Preload("Groups").
		Preload("SubGroups").
		First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Promotions", "Groups", "SubGroups").Save(student).Error; err != nil {
			return err
		}
		if student.Promotions != nil {
			if err := tx.Model(student).Association("Promotions").Replace(student.Promotions); err != nil {
				return err
			}
		}
		if student.Groups != nil {
			if err := tx.Model(student).Association("Groups").Replace(student.Groups); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}
		for _, association := range []string{"Promotions", "Groups", "SubGroups"} {
			if err := tx.Model(&student).Association(association).Clear(); err != nil {
				return err
			}
		}
		return tx.Delete(&student).Error
	})
}

func (r *studentRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN student_groups ON student_groups.student_id = students.id").
		Where("student_groups.group_id = ?", groupID).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) ListBySubGroup(ctx context.Context, subGroupID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN subgroup_students ON subgroup_students.student_id = students.id").
		Where("subgroup_students.sub_group_id = ?", subGroupID).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

// ListByPromotion returns students enrolled directly in the promotion plus
// students reached through any of its groups, deduplicated.
func (r *studentRepository) ListByPromotion(ctx context.Context, promotionID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Distinct("students.*").
		Joins("LEFT JOIN student_promotions ON student_promotions.student_id = students.id").
		Joins("LEFT JOIN student_groups ON student_groups.student_id = students.id").
		Joins("LEFT JOIN groups ON groups.id = student_groups.group_id").
		Where("student_promotions.promotion_id = ? OR groups.promotion_id = ?", promotionID, promotionID).
		Order("students.last_name ASC, students.first_name ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&total).Error
	return total, err
}
