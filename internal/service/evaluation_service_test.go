package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

type fakeEvaluationRepo struct {
	evaluations map[uint]models.Evaluation
	nextID      uint
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{evaluations: make(map[uint]models.Evaluation), nextID: 1}
}

func (f *fakeEvaluationRepo) List(ctx context.Context, filter repository.EvaluationFilter) ([]models.Evaluation, int64, error) {
	var out []models.Evaluation
	for _, evaluation := range f.evaluations {
		if filter.FormID != nil && evaluation.FormID != *filter.FormID {
			continue
		}
		if filter.ProfessorID != nil && evaluation.ProfessorID != *filter.ProfessorID {
			continue
		}
		out = append(out, evaluation)
	}
	return out, int64(len(out)), nil
}

func (f *fakeEvaluationRepo) ListByForm(ctx context.Context, formID uint) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, evaluation := range f.evaluations {
		if evaluation.FormID == formID {
			out = append(out, evaluation)
		}
	}
	return out, nil
}

func (f *fakeEvaluationRepo) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	evaluation, ok := f.evaluations[id]
	if !ok {
		return models.Evaluation{}, gorm.ErrRecordNotFound
	}
	return evaluation, nil
}

func (f *fakeEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.ID = f.nextID
	f.nextID++
	f.evaluations[evaluation.ID] = *evaluation
	return nil
}

func (f *fakeEvaluationRepo) Update(ctx context.Context, evaluation *models.Evaluation) error {
	if _, ok := f.evaluations[evaluation.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.evaluations[evaluation.ID] = *evaluation
	return nil
}

func (f *fakeEvaluationRepo) ReplaceScores(ctx context.Context, evaluation *models.Evaluation, scores []models.Score) error {
	evaluation.Scores = scores
	f.evaluations[evaluation.ID] = *evaluation
	return nil
}

func (f *fakeEvaluationRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.evaluations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.evaluations, id)
	return nil
}

func (f *fakeEvaluationRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.evaluations)), nil
}

type stubPublisher struct {
	subjects []string
	events   []EvaluationEvent
}

func (p *stubPublisher) PublishEvaluation(subject string, event EvaluationEvent) {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
}

type stubInvalidator struct {
	formIDs []uint
}

func (s *stubInvalidator) InvalidateForm(ctx context.Context, formID uint) {
	s.formIDs = append(s.formIDs, formID)
}

type evaluationFixture struct {
	service     EvaluationService
	evaluations *fakeEvaluationRepo
	forms       *fakeFormRepo
	publisher   *stubPublisher
	stats       *stubInvalidator
}

func newEvaluationFixture(t *testing.T) evaluationFixture {
	t.Helper()

	forms := newFakeFormRepo()
	form := scoredForm()
	form.ID = 0
	require.NoError(t, forms.Create(context.Background(), &form))

	students := newFakeStudentRepo(models.Student{ID: 10}, models.Student{ID: 11})
	evaluations := newFakeEvaluationRepo()
	publisher := &stubPublisher{}
	stats := &stubInvalidator{}

	svc := NewEvaluationService(
		evaluations,
		forms,
		students,
		NewRosterService(students, newFakeGroupRepo(), newFakeSubGroupRepo(), newFakePromotionRepo(), zerolog.Nop()),
		publisher,
		stats,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)

	return evaluationFixture{
		service:     svc,
		evaluations: evaluations,
		forms:       forms,
		publisher:   publisher,
		stats:       stats,
	}
}

func validScores() []dto.ScoreRequest {
	return []dto.ScoreRequest{
		{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(4)},
		{LineUID: "line-individual", NotationType: models.NotationIndividual, IndividualScores: []dto.IndividualScoreRequest{
			{StudentID: 10, Score: 1},
		}},
		{LineUID: "line-mixed", NotationType: models.NotationMixed, CommonScore: floatPtr(6)},
	}
}

func TestEvaluationServiceCreate(t *testing.T) {
	fixture := newEvaluationFixture(t)

	created, err := fixture.service.Create(context.Background(), dto.EvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores:         validScores(),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Len(t, created.Scores, 3)

	require.Equal(t, []string{SubjectEvaluationCreated}, fixture.publisher.subjects)
	require.Equal(t, []uint{1}, fixture.stats.formIDs)
}

func TestEvaluationServiceCreateRejectsViolations(t *testing.T) {
	fixture := newEvaluationFixture(t)

	_, err := fixture.service.Create(context.Background(), dto.EvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores: []dto.ScoreRequest{
			{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(42)},
		},
	})
	require.ErrorIs(t, err, ErrScoreOutOfRange)
	require.Empty(t, fixture.evaluations.evaluations)
	require.Empty(t, fixture.publisher.subjects)
}

func TestEvaluationServiceUpdateReValidatesScores(t *testing.T) {
	fixture := newEvaluationFixture(t)

	created, err := fixture.service.Create(context.Background(), dto.EvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores:         validScores(),
	})
	require.NoError(t, err)

	_, err = fixture.service.Update(context.Background(), created.ID, dto.EvaluationUpdateRequest{
		Scores: []dto.ScoreRequest{
			{LineUID: "line-ghost", NotationType: models.NotationCommon, CommonScore: floatPtr(1)},
		},
	})
	require.ErrorIs(t, err, ErrUnknownLine)

	updated, err := fixture.service.Update(context.Background(), created.ID, dto.EvaluationUpdateRequest{
		Scores: []dto.ScoreRequest{
			{LineUID: "line-common", NotationType: models.NotationCommon, CommonScore: floatPtr(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Scores, 1)
	require.Equal(t, float64(2), *updated.Scores[0].CommonScore)
	require.Contains(t, fixture.publisher.subjects, SubjectEvaluationUpdated)
}

func TestEvaluationServiceBulkCreatePartialFailure(t *testing.T) {
	fixture := newEvaluationFixture(t)

	response, err := fixture.service.BulkCreate(context.Background(), dto.BulkEvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		Evaluations: []dto.BulkEvaluationItem{
			{StudentID: uintPtr(10), Scores: validScores()},
			{StudentID: uintPtr(99), Scores: validScores()}, // not targeted by the form
			{StudentID: uintPtr(11), Scores: validScores()},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, response.Created)
	require.Equal(t, 1, response.Failed)
	require.Len(t, response.Outcomes, 3)
	require.NotNil(t, response.Outcomes[0].Evaluation)
	require.Nil(t, response.Outcomes[1].Evaluation)
	require.NotEmpty(t, response.Outcomes[1].Error)
	require.NotNil(t, response.Outcomes[2].Evaluation)

	require.Len(t, fixture.evaluations.evaluations, 2)
	// One broadcast and one cache drop for the whole batch.
	require.Equal(t, []string{SubjectEvaluationCreated}, fixture.publisher.subjects)
	require.Equal(t, []uint{1}, fixture.stats.formIDs)
}

func TestEvaluationServiceValidateScoresDryRun(t *testing.T) {
	fixture := newEvaluationFixture(t)

	response, err := fixture.service.ValidateScores(context.Background(), dto.ValidateScoresRequest{
		FormID: 1,
		Scores: []dto.ScoreRequest{
			{LineUID: "line-ghost", NotationType: models.NotationCommon, CommonScore: floatPtr(1)},
			{LineUID: "line-common", NotationType: models.NotationIndividual, IndividualScores: []dto.IndividualScoreRequest{{StudentID: 10, Score: 1}}},
			{LineUID: "line-individual", NotationType: models.NotationIndividual, IndividualScores: []dto.IndividualScoreRequest{{StudentID: 10, Score: 1}}},
		},
	})
	require.NoError(t, err)
	require.False(t, response.Valid)
	require.Len(t, response.Violations, 2)
	require.Equal(t, KindUnknownLine, response.Violations[0].Kind)
	require.Equal(t, "line-ghost", response.Violations[0].LineUID)
	require.Equal(t, KindNotationMismatch, response.Violations[1].Kind)

	require.Empty(t, fixture.evaluations.evaluations)

	clean, err := fixture.service.ValidateScores(context.Background(), dto.ValidateScoresRequest{
		FormID: 1,
		Scores: validScores(),
	})
	require.NoError(t, err)
	require.True(t, clean.Valid)
	require.Empty(t, clean.Violations)
}

func TestEvaluationServiceContext(t *testing.T) {
	fixture := newEvaluationFixture(t)

	_, err := fixture.service.Create(context.Background(), dto.EvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores:         validScores(),
	})
	require.NoError(t, err)

	response, err := fixture.service.Context(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(1), response.Form.ID)
	require.Len(t, response.TargetStudents, 2)
	require.Equal(t, 1, response.TotalEvaluations)
	require.Equal(t, 1, response.EvaluatedStudents)
	require.Len(t, response.ExistingEvaluations, 1)
}

func TestEvaluationServiceDeletePublishes(t *testing.T) {
	fixture := newEvaluationFixture(t)

	created, err := fixture.service.Create(context.Background(), dto.EvaluationCreateRequest{
		FormID:         1,
		ProfessorID:    7,
		EvaluationType: models.AssociationStudent,
		StudentID:      uintPtr(10),
		Scores:         validScores(),
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Delete(context.Background(), created.ID))
	require.ErrorIs(t, fixture.service.Delete(context.Background(), created.ID), ErrEvaluationNotFound)
	require.Contains(t, fixture.publisher.subjects, SubjectEvaluationDeleted)
}
