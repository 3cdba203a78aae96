package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/observability"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// ErrEvaluationNotFound is returned for lookups of missing evaluations.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// StatsInvalidator drops cached statistics for a form after its evaluations
// change.
type StatsInvalidator interface {
	InvalidateForm(ctx context.Context, formID uint)
}

// EvaluationService exposes evaluation use cases. Every mutating call runs
// the consistency gate against the referenced form before touching storage.
type EvaluationService interface {
	Create(ctx context.Context, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	Update(ctx context.Context, id uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error)
	List(ctx context.Context, payload dto.EvaluationListRequest) (dto.EvaluationListResponse, error)
	Get(ctx context.Context, id uint) (dto.EvaluationResponse, error)
	Delete(ctx context.Context, id uint) error
	BulkCreate(ctx context.Context, payload dto.BulkEvaluationCreateRequest) (dto.BulkEvaluationResponse, error)
	ValidateScores(ctx context.Context, payload dto.ValidateScoresRequest) (dto.ValidateScoresResponse, error)
	Context(ctx context.Context, formID uint) (dto.EvaluationContextResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	forms       repository.FormRepository
	students    repository.StudentRepository
	roster      RosterService
	publisher   EventPublisher
	stats       StatsInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewEvaluationService builds a new evaluation service.
func NewEvaluationService(
	evaluations repository.EvaluationRepository,
	forms repository.FormRepository,
	students repository.StudentRepository,
	roster RosterService,
	publisher EventPublisher,
	stats StatsInvalidator,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		forms:       forms,
		students:    students,
		roster:      roster,
		publisher:   publisher,
		stats:       stats,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Create(ctx context.Context, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	tracer := otel.Tracer("github.com/elise-dlc/evalio-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.create")
	span.SetAttributes(
		attribute.Int64("evaluation.form_id", int64(payload.FormID)),
		attribute.String("evaluation.type", payload.EvaluationType),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, payload.FormID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "form_not_found")
			return dto.EvaluationResponse{}, ErrFormNotFound
		}
		span.SetStatus(codes.Error, "form_lookup_failed")
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.buildEvaluation(ctx, form, payload.ProfessorID, payload.EvaluationType, dto.BulkEvaluationItem{
		StudentID:        payload.StudentID,
		GroupID:          payload.GroupID,
		SubGroupID:       payload.SubGroupID,
		PromotionID:      payload.PromotionID,
		TargetStudentIDs: payload.TargetStudentIDs,
		Scores:           payload.Scores,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consistency_violation")
		return dto.EvaluationResponse{}, err
	}

	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.EvaluationResponse{}, err
	}

	s.afterMutation(ctx, SubjectEvaluationCreated, evaluation)
	observability.EvaluationsRecorded().WithLabelValues(evaluation.EvaluationType).Inc()

	s.logger.Info().
		Uint("evaluation_id", evaluation.ID).
		Uint("form_id", evaluation.FormID).
		Str("evaluation_type", evaluation.EvaluationType).
		Msg("evaluation recorded")

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) Update(ctx context.Context, id uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error) {
	tracer := otel.Tracer("github.com/elise-dlc/evalio-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.update")
	span.SetAttributes(attribute.Int64("evaluation.id", int64(id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "evaluation_not_found")
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, evaluation.FormID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "form_not_found")
			return dto.EvaluationResponse{}, ErrFormNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if payload.StudentID != nil {
		evaluation.StudentID = payload.StudentID
	}
	if payload.GroupID != nil {
		evaluation.GroupID = payload.GroupID
	}
	if payload.SubGroupID != nil {
		evaluation.SubGroupID = payload.SubGroupID
	}
	if payload.PromotionID != nil {
		evaluation.PromotionID = payload.PromotionID
	}

	scores := scoreRequests(evaluation.Scores)
	if payload.Scores != nil {
		scores = payload.Scores
	}

	candidate := evaluationCandidate{
		EvaluationType: evaluation.EvaluationType,
		StudentID:      evaluation.StudentID,
		GroupID:        evaluation.GroupID,
		SubGroupID:     evaluation.SubGroupID,
		PromotionID:    evaluation.PromotionID,
		Scores:         scores,
	}
	if err := validateEvaluation(form, candidate); err != nil {
		s.recordViolation(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "consistency_violation")
		return dto.EvaluationResponse{}, err
	}

	if payload.TargetStudentIDs != nil {
		members, err := s.resolveTargetStudents(ctx, payload.TargetStudentIDs)
		if err != nil {
			span.RecordError(err)
			return dto.EvaluationResponse{}, err
		}
		evaluation.TargetStudents = members
	}

	if payload.Scores != nil {
		if err := s.evaluations.ReplaceScores(ctx, &evaluation, buildScores(payload.Scores)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist_failed")
			return dto.EvaluationResponse{}, err
		}
	} else if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.EvaluationResponse{}, err
	}

	updated, err := s.evaluations.GetByID(ctx, evaluation.ID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.afterMutation(ctx, SubjectEvaluationUpdated, updated)
	s.logger.Info().Uint("evaluation_id", updated.ID).Msg("evaluation updated")

	return dto.NewEvaluationResponse(updated), nil
}

func (s *evaluationService) List(ctx context.Context, payload dto.EvaluationListRequest) (dto.EvaluationListResponse, error) {
	page := payload.Page
	if page <= 0 {
		page = 1
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = 10
	}

	evaluations, total, err := s.evaluations.List(ctx, repository.EvaluationFilter{
		FormID:      payload.FormID,
		ProfessorID: payload.ProfessorID,
		StudentID:   payload.StudentID,
		GroupID:     payload.GroupID,
		SubGroupID:  payload.SubGroupID,
		PromotionID: payload.PromotionID,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return dto.EvaluationListResponse{}, err
	}

	return dto.EvaluationListResponse{
		Items:      dto.NewEvaluationResponseSlice(evaluations),
		Pagination: dto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *evaluationService) Get(ctx context.Context, id uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) Delete(ctx context.Context, id uint) error {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEvaluationNotFound
		}
		return err
	}

	if err := s.evaluations.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEvaluationNotFound
		}
		return err
	}

	s.afterMutation(ctx, SubjectEvaluationDeleted, evaluation)
	s.logger.Info().Uint("evaluation_id", id).Msg("evaluation deleted")
	return nil
}

// BulkCreate records several evaluations against one form. Items are
// validated and persisted independently: a violation in one item never
// blocks the others.
func (s *evaluationService) BulkCreate(ctx context.Context, payload dto.BulkEvaluationCreateRequest) (dto.BulkEvaluationResponse, error) {
	tracer := otel.Tracer("github.com/elise-dlc/evalio-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.bulk_create")
	span.SetAttributes(
		attribute.Int64("evaluation.form_id", int64(payload.FormID)),
		attribute.Int("evaluation.items", len(payload.Evaluations)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.BulkEvaluationResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, payload.FormID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "form_not_found")
			return dto.BulkEvaluationResponse{}, ErrFormNotFound
		}
		return dto.BulkEvaluationResponse{}, err
	}

	response := dto.BulkEvaluationResponse{
		Outcomes: make([]dto.BulkEvaluationOutcome, 0, len(payload.Evaluations)),
	}

	for index, item := range payload.Evaluations {
		outcome := dto.BulkEvaluationOutcome{Index: index}

		evaluation, err := s.buildEvaluation(ctx, form, payload.ProfessorID, payload.EvaluationType, item)
		if err == nil {
			err = s.evaluations.Create(ctx, &evaluation)
		}
		if err != nil {
			outcome.Error = err.Error()
			response.Failed++
		} else {
			converted := dto.NewEvaluationResponse(evaluation)
			outcome.Evaluation = &converted
			response.Created++
			observability.EvaluationsRecorded().WithLabelValues(evaluation.EvaluationType).Inc()
		}

		response.Outcomes = append(response.Outcomes, outcome)
	}

	if response.Created > 0 {
		if s.stats != nil {
			s.stats.InvalidateForm(ctx, form.ID)
		}
		s.publisher.PublishEvaluation(SubjectEvaluationCreated, EvaluationEvent{
			FormID:      form.ID,
			ProfessorID: payload.ProfessorID,
		})
	}

	s.logger.Info().
		Uint("form_id", form.ID).
		Int("created", response.Created).
		Int("failed", response.Failed).
		Msg("bulk evaluations recorded")

	return response, nil
}

// ValidateScores is the dry-run preview: scores are checked against the
// form and every violation is reported, nothing is persisted.
func (s *evaluationService) ValidateScores(ctx context.Context, payload dto.ValidateScoresRequest) (dto.ValidateScoresResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ValidateScoresResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, payload.FormID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ValidateScoresResponse{}, ErrFormNotFound
		}
		return dto.ValidateScoresResponse{}, err
	}

	violations := collectScoreViolations(form, payload.Scores)
	return dto.ValidateScoresResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	}, nil
}

// Context bundles everything a scoring session needs: the form, its roster
// and the evaluations already recorded against it.
func (s *evaluationService) Context(ctx context.Context, formID uint) (dto.EvaluationContextResponse, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationContextResponse{}, ErrFormNotFound
		}
		return dto.EvaluationContextResponse{}, err
	}

	roster, err := resolveRoster(ctx, s.roster, form)
	if err != nil {
		return dto.EvaluationContextResponse{}, err
	}

	evaluations, err := s.evaluations.ListByForm(ctx, formID)
	if err != nil {
		return dto.EvaluationContextResponse{}, err
	}

	evaluated := make(map[uint]struct{})
	for _, evaluation := range evaluations {
		if evaluation.StudentID != nil {
			evaluated[*evaluation.StudentID] = struct{}{}
		}
		for _, student := range evaluation.TargetStudents {
			evaluated[student.ID] = struct{}{}
		}
		for _, score := range evaluation.Scores {
			for _, individual := range score.IndividualScoreList() {
				evaluated[individual.StudentID] = struct{}{}
			}
		}
	}

	return dto.EvaluationContextResponse{
		Form:                dto.NewFormResponse(form),
		TargetStudents:      dto.NewStudentResponseSlice(roster),
		ExistingEvaluations: dto.NewEvaluationResponseSlice(evaluations),
		TotalEvaluations:    len(evaluations),
		EvaluatedStudents:   len(evaluated),
	}, nil
}

// buildEvaluation runs the consistency gate and assembles the model,
// without persisting it.
func (s *evaluationService) buildEvaluation(ctx context.Context, form models.Form, professorID uint, evaluationType string, item dto.BulkEvaluationItem) (models.Evaluation, error) {
	candidate := evaluationCandidate{
		EvaluationType: evaluationType,
		StudentID:      item.StudentID,
		GroupID:        item.GroupID,
		SubGroupID:     item.SubGroupID,
		PromotionID:    item.PromotionID,
		Scores:         item.Scores,
	}
	if err := validateEvaluation(form, candidate); err != nil {
		s.recordViolation(err)
		return models.Evaluation{}, err
	}

	evaluation := models.Evaluation{
		FormID:         form.ID,
		ProfessorID:    professorID,
		EvaluationType: evaluationType,
		StudentID:      item.StudentID,
		GroupID:        item.GroupID,
		SubGroupID:     item.SubGroupID,
		PromotionID:    item.PromotionID,
		Scores:         buildScores(item.Scores),
	}

	if len(item.TargetStudentIDs) > 0 {
		members, err := s.resolveTargetStudents(ctx, item.TargetStudentIDs)
		if err != nil {
			return models.Evaluation{}, err
		}
		evaluation.TargetStudents = members
	}

	return evaluation, nil
}

func (s *evaluationService) resolveTargetStudents(ctx context.Context, ids []uint) ([]models.Student, error) {
	members, err := s.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(members) != len(ids) {
		return nil, fmt.Errorf("%w: unknown target student", ErrStudentNotFound)
	}
	return members, nil
}

func (s *evaluationService) recordViolation(err error) {
	if kind := ViolationKind(err); kind != "" {
		observability.ValidationFailures().WithLabelValues(kind).Inc()
	}
}

func (s *evaluationService) afterMutation(ctx context.Context, subject string, evaluation models.Evaluation) {
	if s.stats != nil {
		s.stats.InvalidateForm(ctx, evaluation.FormID)
	}
	s.publisher.PublishEvaluation(subject, EvaluationEvent{
		EvaluationID: evaluation.ID,
		FormID:       evaluation.FormID,
		ProfessorID:  evaluation.ProfessorID,
	})
}

func buildScores(requests []dto.ScoreRequest) []models.Score {
	scores := make([]models.Score, 0, len(requests))
	for _, request := range requests {
		score := models.Score{
			LineUID:      request.LineUID,
			NotationType: request.NotationType,
			CommonScore:  request.CommonScore,
		}
		individuals := make([]models.IndividualScore, 0, len(request.IndividualScores))
		for _, individual := range request.IndividualScores {
			individuals = append(individuals, models.IndividualScore{
				StudentID: individual.StudentID,
				Score:     individual.Score,
			})
		}
		score.SetIndividualScores(individuals)
		scores = append(scores, score)
	}
	return scores
}

func scoreRequests(scores []models.Score) []dto.ScoreRequest {
	requests := make([]dto.ScoreRequest, 0, len(scores))
	for _, score := range scores {
		request := dto.ScoreRequest{
			LineUID:      score.LineUID,
			NotationType: score.NotationType,
			CommonScore:  score.CommonScore,
		}
		for _, individual := range score.IndividualScoreList() {
			request.IndividualScores = append(request.IndividualScores, dto.IndividualScoreRequest{
				StudentID: individual.StudentID,
				Score:     individual.Score,
			})
		}
		requests = append(requests, request)
	}
	return requests
}
