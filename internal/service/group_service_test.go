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

func newTestGroupService(groups *fakeGroupRepo, promotions *fakePromotionRepo) GroupService {
	return NewGroupService(groups, promotions, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestGroupServiceCreateChecksPromotion(t *testing.T) {
	svc := newTestGroupService(newFakeGroupRepo(), newFakePromotionRepo(models.Promotion{ID: 1}))

	created, err := svc.Create(context.Background(), dto.GroupCreateRequest{Name: "G1", PromotionID: 1})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, uint(1), created.PromotionID)

	_, err = svc.Create(context.Background(), dto.GroupCreateRequest{Name: "G2", PromotionID: 99})
	require.ErrorIs(t, err, ErrPromotionNotFound)
}

func TestGroupServiceDeleteBlockedBySubGroups(t *testing.T) {
	groups := newFakeGroupRepo(models.Group{ID: 5, Name: "G1", PromotionID: 1})
	groups.subGroupCount[5] = 2
	svc := newTestGroupService(groups, newFakePromotionRepo(models.Promotion{ID: 1}))

	err := svc.Delete(context.Background(), 5)
	require.ErrorIs(t, err, ErrGroupHasSubGroups)
	require.Contains(t, groups.groups, uint(5))

	groups.subGroupCount[5] = 0
	require.NoError(t, svc.Delete(context.Background(), 5))
	require.NotContains(t, groups.groups, uint(5))
}

func TestGroupServiceDeleteUnknown(t *testing.T) {
	svc := newTestGroupService(newFakeGroupRepo(), newFakePromotionRepo())

	require.ErrorIs(t, svc.Delete(context.Background(), 404), ErrGroupNotFound)
}
