package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// SubGroupRepository defines persistence operations for subgroups. Student
// membership lives in a join table; ReplaceStudents and Delete mutate it
// together with the subgroup row inside one transaction so no half-updated
// state is observable.
type SubGroupRepository interface {
	List(ctx context.Context) ([]models.SubGroup, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.SubGroup, error)
	GetByID(ctx context.Context, id uint) (models.SubGroup, error)
	Create(ctx context.Context, subGroup *models.SubGroup) error
	Update(ctx context.Context, subGroup *models.SubGroup) error
	ReplaceStudents(ctx context.Context, subGroup *models.SubGroup, students []models.Student) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type subGroupRepository struct {
	db *gorm.DB
}

// NewSubGroupRepository instantiates the repository.
func NewSubGroupRepository(db *gorm.DB) SubGroupRepository {
	return &subGroupRepository{db: db}
}

func (r *subGroupRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.SubGroup{}).
		Preload("Group").
		Preload("Students")
}

func (r *subGroupRepository) List(ctx context.Context) ([]models.SubGroup, error) {
	var subGroups []models.SubGroup
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&subGroups).Error; err != nil {
		return nil, err
	}

	return subGroups, nil
}

func (r *subGroupRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.SubGroup, error) {
	var subGroups []models.SubGroup
	if err := r.baseQuery(ctx).
		Where("group_id = ?", groupID).
		Order("name ASC").
		Find(&subGroups).Error; err != nil {
		return nil, err
	}

	return subGroups, nil
}

func (r *subGroupRepository) GetByID(ctx context.Context, id uint) (models.SubGroup, error) {
	var subGroup models.SubGroup
	if err := r.baseQuery(ctx).First(&subGroup, id).Error; err != nil {
		return models.SubGroup{}, err
	}

	return subGroup, nil
}

func (r *subGroupRepository) Create(ctx context.Context, subGroup *models.SubGroup) error {
	return r.db.WithContext(ctx).Create(subGroup).Error
}

func (r *subGroupRepository) Update(ctx context.Context, subGroup *models.SubGroup) error {
	return r.db.WithContext(ctx).Omit("Students").Save(subGroup).Error
}

func (r *subGroupRepository) ReplaceStudents(ctx context.Context, subGroup *models.SubGroup, students []models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Students").Save(subGroup).Error; err != nil {
			return err
		}
		return tx.Model(subGroup).Association("Students").Replace(students)
	})
}

func (r *subGroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subGroup models.SubGroup
		if err := tx.First(&subGroup, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&subGroup).Association("Students").Clear(); err != nil {
			return err
		}
		return tx.Delete(&subGroup).Error
	})
}

func (r *subGroupRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.SubGroup{}).Count(&total).Error
	return total, err
}
