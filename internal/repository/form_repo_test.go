package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

func seedForm(t *testing.T, db *gorm.DB, repo FormRepository, validFrom, validTo time.Time) models.Form {
	t.Helper()

	student := seedStudent(t, db, "f-"+validFrom.Format("150405.000000000"))
	form := models.Form{
		ProfessorID:     7,
		Title:           "Oral presentation",
		AssociationType: models.AssociationStudent,
		ValidFrom:       validFrom,
		ValidTo:         validTo,
		Students:        []models.Student{student},
		Sections: []models.Section{
			{
				Position: 0,
				Title:    "Delivery",
				Lines: []models.Line{
					{Position: 0, UID: "uid-" + validFrom.Format("150405.000000000") + "-a", Title: "Clarity", MaxScore: 5, Type: models.LineTypeScale, NotationType: models.NotationCommon},
					{Position: 1, UID: "uid-" + validFrom.Format("150405.000000000") + "-b", Title: "Present", MaxScore: 1, Type: models.LineTypeBinary, NotationType: models.NotationIndividual},
				},
			},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &form))
	return form
}

func TestFormRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	form := seedForm(t, db, repo, now.Add(-time.Hour), now.Add(time.Hour))

	loaded, err := repo.GetByID(context.Background(), form.ID)
	require.NoError(t, err)
	require.Equal(t, "Oral presentation", loaded.Title)
	require.Len(t, loaded.Sections, 1)
	require.Len(t, loaded.Sections[0].Lines, 2)
	require.Equal(t, "Clarity", loaded.Sections[0].Lines[0].Title)
	require.Len(t, loaded.Students, 1)
}

func TestFormRepositoryReplaceSectionsKeepsCallerUIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	form := seedForm(t, db, repo, now.Add(-time.Hour), now.Add(time.Hour))
	originalUID := form.Sections[0].Lines[0].UID

	replacement := []models.Section{
		{
			Position: 0,
			Title:    "Delivery v2",
			Lines: []models.Line{
				{Position: 0, UID: originalUID, Title: "Clarity v2", MaxScore: 5, Type: models.LineTypeScale, NotationType: models.NotationCommon},
			},
		},
	}
	require.NoError(t, repo.ReplaceSections(ctx, &form, replacement))

	loaded, err := repo.GetByID(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Sections, 1)
	require.Equal(t, "Delivery v2", loaded.Sections[0].Title)
	require.Len(t, loaded.Sections[0].Lines, 1)
	require.Equal(t, originalUID, loaded.Sections[0].Lines[0].UID)
	require.Equal(t, "Clarity v2", loaded.Sections[0].Lines[0].Title)

	var lineCount int64
	require.NoError(t, db.Model(&models.Line{}).Count(&lineCount).Error)
	require.Equal(t, int64(1), lineCount)
}

func TestFormRepositoryListOnlyValid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	active := seedForm(t, db, repo, now.Add(-time.Hour), now.Add(time.Hour))
	seedForm(t, db, repo, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	all, total, err := repo.List(ctx, FormFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)

	valid, total, err := repo.List(ctx, FormFilter{OnlyValid: true, Now: now, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, valid, 1)
	require.Equal(t, active.ID, valid[0].ID)
}

func TestFormRepositoryDeleteCleansChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	form := seedForm(t, db, repo, now.Add(-time.Hour), now.Add(time.Hour))

	require.NoError(t, repo.Delete(ctx, form.ID))

	_, err := repo.GetByID(ctx, form.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var sections, lines, joins int64
	require.NoError(t, db.Model(&models.Section{}).Where("form_id = ?", form.ID).Count(&sections).Error)
	require.NoError(t, db.Model(&models.Line{}).Count(&lines).Error)
	require.NoError(t, db.Table("form_students").Where("form_id = ?", form.ID).Count(&joins).Error)
	require.Zero(t, sections)
	require.Zero(t, lines)
	require.Zero(t, joins)
}
