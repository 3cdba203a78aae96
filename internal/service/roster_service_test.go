package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/elise-dlc/evalio-api/internal/models"
)

func newTestRosterService(students *fakeStudentRepo, groups *fakeGroupRepo, subGroups *fakeSubGroupRepo, promotions *fakePromotionRepo) RosterService {
	return NewRosterService(students, groups, subGroups, promotions, zerolog.Nop())
}

func TestRosterMembersOfUnknownParent(t *testing.T) {
	roster := newTestRosterService(newFakeStudentRepo(), newFakeGroupRepo(), newFakeSubGroupRepo(), newFakePromotionRepo())

	cases := []struct {
		kind string
		want error
	}{
		{models.AssociationStudent, ErrStudentNotFound},
		{models.AssociationGroup, ErrGroupNotFound},
		{models.AssociationSubGroup, ErrSubGroupNotFound},
		{models.AssociationPromotion, ErrPromotionNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			_, err := roster.MembersOf(context.Background(), tc.kind, 999)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRosterMembersOfEmptyGroup(t *testing.T) {
	groups := newFakeGroupRepo(models.Group{ID: 5, Name: "G1", PromotionID: 1})
	roster := newTestRosterService(newFakeStudentRepo(), groups, newFakeSubGroupRepo(), newFakePromotionRepo())

	students, err := roster.MembersOf(context.Background(), models.AssociationGroup, 5)
	require.NoError(t, err)
	require.Empty(t, students)
}

func TestRosterMembersOfUnknownKind(t *testing.T) {
	roster := newTestRosterService(newFakeStudentRepo(), newFakeGroupRepo(), newFakeSubGroupRepo(), newFakePromotionRepo())

	_, err := roster.MembersOf(context.Background(), "classroom", 1)
	require.ErrorIs(t, err, ErrUnknownEntityKind)
}
