package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func uintPtr(v uint) *uint        { return &v }

func scoredForm() models.Form {
	return models.Form{
		ID:              1,
		AssociationType: models.AssociationStudent,
		Students:        []models.Student{{ID: 10}, {ID: 11}},
		Sections: []models.Section{
			{
				Title: "Technique",
				Lines: []models.Line{
					{UID: "line-common", Title: "Clarity", MaxScore: 5, Type: models.LineTypeScale, NotationType: models.NotationCommon},
					{UID: "line-individual", Title: "Participation", MaxScore: 1, Type: models.LineTypeBinary, NotationType: models.NotationIndividual},
					{UID: "line-mixed", Title: "Delivery", MaxScore: 8, Type: models.LineTypeScale, NotationType: models.NotationMixed},
				},
			},
		},
	}
}

func TestValidateEvaluationTypeMismatch(t *testing.T) {
	form := scoredForm()
	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationGroup,
		GroupID:        uintPtr(3),
	})
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.Equal(t, KindTypeMismatch, ViolationKind(err))
}

func TestValidateEvaluationTargetNotInForm(t *testing.T) {
	form := scoredForm()
	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(99),
	})
	require.ErrorIs(t, err, ErrTargetNotInForm)
}

func TestValidateEvaluationMissingTarget(t *testing.T) {
	form := scoredForm()
	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationStudent,
	})
	require.ErrorIs(t, err, ErrTargetNotInForm)
}

func TestValidateEvaluationPromotionMustMatchForm(t *testing.T) {
	form := models.Form{
		AssociationType: models.AssociationPromotion,
		PromotionID:     uintPtr(4),
	}

	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationPromotion,
		PromotionID:    uintPtr(5),
	})
	require.ErrorIs(t, err, ErrTargetNotInForm)

	err = validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationPromotion,
		PromotionID:    uintPtr(4),
	})
	require.NoError(t, err)
}

func TestValidateEvaluationUnknownLine(t *testing.T) {
	form := scoredForm()
	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores: []dto.ScoreRequest{
			{LineUID: "no-such-line", NotationType: models.NotationCommon, CommonScore: floatPtr(3)},
		},
	})
	require.ErrorIs(t, err, ErrUnknownLine)
}

func TestValidateEvaluationNotationMismatch(t *testing.T) {
	form := scoredForm()
	err := validateEvaluation(form, evaluationCandidate{
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores: []dto.ScoreRequest{
			{LineUID: "line-common", NotationType: models.NotationIndividual, IndividualScores: []dto.IndividualScoreRequest{{StudentID: 10, Score: 3}}},
		},
	})
	require.ErrorIs(t, err, ErrNotationMismatch)
}

func TestValidateEvaluationScoreShapes(t *testing.T) {
	form := scoredForm()

	cases := []struct {
		name  string
		score dto.ScoreRequest
		want  error
	}{
		{
			name:  "common without common score",
			score: dto.ScoreRequest{LineUID: "line-common", NotationType: models.NotationCommon},
			want:  ErrMissingCommonScore,
		},
		{
			name:  "individual without member scores",
			score: dto.ScoreRequest{LineUID: "line-individual", NotationType: models.NotationIndividual},
			want:  ErrMissingIndividualScores,
		},
		{
			name:  "mixed without any score",
			score: dto.ScoreRequest{LineUID: "line-mixed", NotationType: models.NotationMixed},
			want:  ErrMissingMixedScore,
		},
		{
			name:  "common above max",
			score: dto.ScoreRequest{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(6)},
			want:  ErrScoreOutOfRange,
		},
		{
			name:  "common below zero",
			score: dto.ScoreRequest{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(-1)},
			want:  ErrScoreOutOfRange,
		},
		{
			name: "individual member above max",
			score: dto.ScoreRequest{LineUID: "line-individual", NotationType: models.NotationIndividual,
				IndividualScores: []dto.IndividualScoreRequest{{StudentID: 10, Score: 2}}},
			want: ErrScoreOutOfRange,
		},
		{
			name: "mixed with both variants in range",
			score: dto.ScoreRequest{LineUID: "line-mixed", NotationType: models.NotationMixed, CommonScore: floatPtr(7),
				IndividualScores: []dto.IndividualScoreRequest{{StudentID: 11, Score: 8}}},
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEvaluation(form, evaluationCandidate{
				EvaluationType: models.AssociationStudent,
				StudentID:      uintPtr(10),
				Scores:         []dto.ScoreRequest{tc.score},
			})
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestCollectScoreViolationsReportsEverything(t *testing.T) {
	form := scoredForm()
	violations := collectScoreViolations(form, []dto.ScoreRequest{
		{LineUID: "missing", NotationType: models.NotationCommon, CommonScore: floatPtr(1)},
		{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(9)},
		{LineUID: "line-individual", NotationType: models.NotationIndividual, IndividualScores: []dto.IndividualScoreRequest{{StudentID: 10, Score: 1}}},
	})

	require.Len(t, violations, 2)
	require.Equal(t, KindUnknownLine, violations[0].Kind)
	require.Equal(t, "missing", violations[0].LineUID)
	require.Equal(t, KindScoreOutOfRange, violations[1].Kind)
	require.Equal(t, "line-common", violations[1].LineUID)
}
