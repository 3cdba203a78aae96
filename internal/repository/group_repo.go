package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// GroupFilter narrows group listings.
type GroupFilter struct {
	PromotionID *uint
	Page        int
	Limit       int
}

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	List(ctx context.Context, filter GroupFilter) ([]models.Group, int64, error)
	ListByPromotion(ctx context.Context, promotionID uint) ([]models.Group, error)
	GetByID(ctx context.Context, id uint) (models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
	SubGroupCount(ctx context.Context, groupID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates the repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) List(ctx context.Context, filter GroupFilter) ([]models.Group, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Group{})

	if filter.PromotionID != nil {
		query = query.Where("promotion_id = ?", *filter.PromotionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var groups []models.Group
	if err := query.Preload("Promotion").Preload("SubGroups").
		Order("created_at DESC").
		Offset(pageOffset(filter.Page, filter.Limit)).Limit(filter.Limit).
		Find(&groups).Error; err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

func (r *groupRepository) ListByPromotion(ctx context.Context, promotionID uint) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Where("promotion_id = ?", promotionID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Preload("Promotion").
		Preload("SubGroups").
		First(&group, id).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Group{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *groupRepository) SubGroupCount(ctx context.Context, groupID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.SubGroup{}).
		Where("group_id = ?", groupID).
		Count(&total).Error
	return total, err
}

func (r *groupRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Group{}).Count(&total).Error
	return total, err
}
