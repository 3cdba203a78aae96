package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// PromotionRepository defines persistence operations for promotions.
type PromotionRepository interface {
	List(ctx context.Context, page, limit int) ([]models.Promotion, int64, error)
	GetByID(ctx context.Context, id uint) (models.Promotion, error)
	Create(ctx context.Context, promotion *models.Promotion) error
	Update(ctx context.Context, promotion *models.Promotion) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository instantiates a GORM-backed repository.
func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) List(ctx context.Context, page, limit int) ([]models.Promotion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Promotion{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var promotions []models.Promotion
	if err := query.Preload("Groups").
		Order("created_at DESC").
		Offset(pageOffset(page, limit)).Limit(limit).
		Find(&promotions).Error; err != nil {
		return nil, 0, err
	}

	return promotions, total, nil
}

func (r *promotionRepository) GetByID(ctx context.Context, id uint) (models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).Preload("Groups").First(&promotion, id).Error; err != nil {
		return models.Promotion{}, err
	}

	return promotion, nil
}

func (r *promotionRepository) Create(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *promotionRepository) Update(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Save(promotion).Error
}

func (r *promotionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Promotion{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *promotionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Promotion{}).Count(&total).Error
	return total, err
}

func pageOffset(page, limit int) int {
	if page <= 0 {
		page = 1
	}
	return (page - 1) * limit
}
