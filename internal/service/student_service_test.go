package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
)

func newTestStudentService(students *fakeStudentRepo, promotions *fakePromotionRepo, groups *fakeGroupRepo) StudentService {
	return NewStudentService(students, promotions, groups, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func strPtr(v string) *string { return &v }

func TestStudentServiceCreateResolvesMemberships(t *testing.T) {
	students := newFakeStudentRepo()
	svc := newTestStudentService(students, newFakePromotionRepo(models.Promotion{ID: 1}), newFakeGroupRepo(models.Group{ID: 2, PromotionID: 1}))

	created, err := svc.Create(context.Background(), dto.StudentCreateRequest{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		YearLevel:     "BUT2",
		StudentNumber: "22001",
		PromotionIDs:  []uint{1},
		GroupIDs:      []uint{2},
	})
	require.NoError(t, err)
	require.Equal(t, []uint{1}, created.PromotionIDs)
	require.Equal(t, []uint{2}, created.GroupIDs)

	_, err = svc.Create(context.Background(), dto.StudentCreateRequest{
		FirstName:     "Bad",
		LastName:      "Ref",
		YearLevel:     "BUT1",
		StudentNumber: "22002",
		GroupIDs:      []uint{99},
	})
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestStudentServiceCreateRejectsBadYearLevel(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), newFakePromotionRepo(), newFakeGroupRepo())

	_, err := svc.Create(context.Background(), dto.StudentCreateRequest{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		YearLevel:     "L3",
		StudentNumber: "22001",
	})
	require.Error(t, err)
	require.IsType(t, validator.ValidationErrors{}, err)
}

func TestStudentServiceUpdateCurrentPointerMustBeMember(t *testing.T) {
	students := newFakeStudentRepo(models.Student{
		ID:         1,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		YearLevel:  "BUT2",
		Promotions: []models.Promotion{{ID: 1}},
		Groups:     []models.Group{{ID: 2, PromotionID: 1}},
	})
	svc := newTestStudentService(students, newFakePromotionRepo(models.Promotion{ID: 1}, models.Promotion{ID: 3}), newFakeGroupRepo(models.Group{ID: 2, PromotionID: 1}))

	// Pointing outside the membership set is refused.
	_, err := svc.Update(context.Background(), 1, dto.StudentUpdateRequest{CurrentPromotionID: uintPtr(3)})
	require.ErrorIs(t, err, ErrCurrentNotMember)

	updated, err := svc.Update(context.Background(), 1, dto.StudentUpdateRequest{
		CurrentPromotionID: uintPtr(1),
		CurrentGroupID:     uintPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, uint(1), *updated.CurrentPromotionID)
	require.Equal(t, uint(2), *updated.CurrentGroupID)
}

func TestStudentServiceUpdateReplacesMemberships(t *testing.T) {
	students := newFakeStudentRepo(models.Student{
		ID:         1,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		YearLevel:  "BUT2",
		Promotions: []models.Promotion{{ID: 1}},
	})
	svc := newTestStudentService(students, newFakePromotionRepo(models.Promotion{ID: 1}, models.Promotion{ID: 3}), newFakeGroupRepo())

	updated, err := svc.Update(context.Background(), 1, dto.StudentUpdateRequest{
		FirstName:    strPtr("Augusta"),
		PromotionIDs: []uint{3},
	})
	require.NoError(t, err)
	require.Equal(t, "Augusta", updated.FirstName)
	require.Equal(t, []uint{3}, updated.PromotionIDs)
}

func TestStudentServiceGetUnknown(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), newFakePromotionRepo(), newFakeGroupRepo())

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
