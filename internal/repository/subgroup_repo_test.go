package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

func seedGroup(t *testing.T, db *gorm.DB) models.Group {
	t.Helper()

	promotion := models.Promotion{Name: "BUT2", Year: "2025"}
	require.NoError(t, db.Create(&promotion).Error)
	group := models.Group{Name: "G1", PromotionID: promotion.ID}
	require.NoError(t, db.Create(&group).Error)
	return group
}

func seedStudent(t *testing.T, db *gorm.DB, number string) models.Student {
	t.Helper()

	student := models.Student{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		YearLevel:     models.YearLevelBUT2,
		StudentNumber: number,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestSubGroupRepositoryReplaceStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubGroupRepository(db)
	ctx := context.Background()

	group := seedGroup(t, db)
	first := seedStudent(t, db, "22001")
	second := seedStudent(t, db, "22002")

	subGroup := models.SubGroup{Name: "TP A", Type: "lab", GroupID: group.ID, PromotionID: group.PromotionID}
	require.NoError(t, repo.Create(ctx, &subGroup))

	require.NoError(t, repo.ReplaceStudents(ctx, &subGroup, []models.Student{first}))
	loaded, err := repo.GetByID(ctx, subGroup.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Students, 1)
	require.Equal(t, first.ID, loaded.Students[0].ID)

	// Replacing swaps the membership, it never appends.
	require.NoError(t, repo.ReplaceStudents(ctx, &subGroup, []models.Student{second}))
	loaded, err = repo.GetByID(ctx, subGroup.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Students, 1)
	require.Equal(t, second.ID, loaded.Students[0].ID)
}

func TestSubGroupRepositoryDeleteClearsMembership(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubGroupRepository(db)
	ctx := context.Background()

	group := seedGroup(t, db)
	student := seedStudent(t, db, "22003")

	subGroup := models.SubGroup{Name: "TP B", Type: "lab", GroupID: group.ID, PromotionID: group.PromotionID}
	require.NoError(t, repo.Create(ctx, &subGroup))
	require.NoError(t, repo.ReplaceStudents(ctx, &subGroup, []models.Student{student}))

	require.NoError(t, repo.Delete(ctx, subGroup.ID))

	_, err := repo.GetByID(ctx, subGroup.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var joinRows int64
	require.NoError(t, db.Table("subgroup_students").Where("sub_group_id = ?", subGroup.ID).Count(&joinRows).Error)
	require.Zero(t, joinRows)

	// The student itself survives.
	var kept models.Student
	require.NoError(t, db.First(&kept, student.ID).Error)
}

func TestSubGroupRepositoryListByGroup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubGroupRepository(db)
	ctx := context.Background()

	group := seedGroup(t, db)
	other := models.Group{Name: "G2", PromotionID: group.PromotionID}
	require.NoError(t, db.Create(&other).Error)

	for _, name := range []string{"TP B", "TP A"} {
		subGroup := models.SubGroup{Name: name, Type: "lab", GroupID: group.ID, PromotionID: group.PromotionID}
		require.NoError(t, repo.Create(ctx, &subGroup))
	}
	stray := models.SubGroup{Name: "TP C", Type: "lab", GroupID: other.ID, PromotionID: group.PromotionID}
	require.NoError(t, repo.Create(ctx, &stray))

	subGroups, err := repo.ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, subGroups, 2)
	require.Equal(t, "TP A", subGroups[0].Name)
	require.Equal(t, "TP B", subGroups[1].Name)
}
