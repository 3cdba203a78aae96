package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

func TestPromotionRepositoryPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		promotion := models.Promotion{Name: fmt.Sprintf("Promo %02d", i), Year: "2025"}
		require.NoError(t, repo.Create(ctx, &promotion))
	}

	promotions, total, err := repo.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, int64(25), total)
	require.Len(t, promotions, 10)

	last, total, err := repo.List(ctx, 3, 10)
	require.NoError(t, err)
	require.Equal(t, int64(25), total)
	require.Len(t, last, 5)
}

func TestPromotionRepositoryCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	promotion := models.Promotion{Name: "BUT2 Info", Year: "2025", Description: "second year"}
	require.NoError(t, repo.Create(ctx, &promotion))
	require.NotZero(t, promotion.ID)

	loaded, err := repo.GetByID(ctx, promotion.ID)
	require.NoError(t, err)
	require.Equal(t, "BUT2 Info", loaded.Name)

	loaded.Name = "BUT2 Info A"
	require.NoError(t, repo.Update(ctx, &loaded))

	updated, err := repo.GetByID(ctx, promotion.ID)
	require.NoError(t, err)
	require.Equal(t, "BUT2 Info A", updated.Name)

	require.NoError(t, repo.Delete(ctx, promotion.ID))
	_, err = repo.GetByID(ctx, promotion.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
