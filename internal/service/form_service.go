package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// Sentinel errors for form construction rules.
var (
	ErrFormNotFound       = errors.New("form not found")
	ErrInvalidWindow      = errors.New("validity end must be strictly after start")
	ErrInvalidAssociation = errors.New("exactly one non-empty target collection matching the association type is required")
	ErrInvalidLineScore   = errors.New("line max score violates the binary/scale rule")
)

// FormService exposes rubric form use cases.
type FormService interface {
	Create(ctx context.Context, professorID uint, payload dto.FormCreateRequest) (dto.FormResponse, error)
	Update(ctx context.Context, id uint, payload dto.FormUpdateRequest) (dto.FormResponse, error)
	List(ctx context.Context, payload dto.FormListRequest) (dto.FormListResponse, error)
	Get(ctx context.Context, id uint) (dto.FormResponse, error)
	Delete(ctx context.Context, id uint) error
	Assign(ctx context.Context, id uint, payload dto.FormAssignRequest) (dto.FormResponse, error)
	TargetStudents(ctx context.Context, id uint) ([]dto.StudentResponse, error)
	Criteria(ctx context.Context, id uint) ([]dto.CriterionResponse, error)
	Template(ctx context.Context, id uint) (dto.TemplateResponse, error)
}

type formService struct {
	forms     repository.FormRepository
	roster    RosterService
	students  repository.StudentRepository
	groups    repository.GroupRepository
	subGroups repository.SubGroupRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewFormService builds a new form service.
func NewFormService(
	forms repository.FormRepository,
	roster RosterService,
	students repository.StudentRepository,
	groups repository.GroupRepository,
	subGroups repository.SubGroupRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) FormService {
	return &formService{
		forms:     forms,
		roster:    roster,
		students:  students,
		groups:    groups,
		subGroups: subGroups,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "form_service").Logger(),
		now:       time.Now,
	}
}

func (s *formService) Create(ctx context.Context, professorID uint, payload dto.FormCreateRequest) (dto.FormResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormResponse{}, err
	}

	validFrom, validTo, err := parseWindow(payload.ValidFrom, payload.ValidTo)
	if err != nil {
		return dto.FormResponse{}, err
	}

	sections, err := s.buildSections(payload.Sections)
	if err != nil {
		return dto.FormResponse{}, err
	}

	targets := targetSets{
		StudentIDs:  payload.StudentIDs,
		GroupIDs:    payload.GroupIDs,
		SubGroupIDs: payload.SubGroupIDs,
		PromotionID: payload.PromotionID,
	}
	if err := targets.checkExclusive(payload.AssociationType); err != nil {
		return dto.FormResponse{}, err
	}

	form := models.Form{
		ProfessorID:     professorID,
		Title:           s.sanitizer.Sanitize(payload.Title),
		AssociationType: payload.AssociationType,
		ValidFrom:       validFrom,
		ValidTo:         validTo,
		Sections:        sections,
		PromotionID:     payload.PromotionID,
	}

	if err := s.resolveTargets(ctx, &form, targets); err != nil {
		return dto.FormResponse{}, err
	}

	if err := s.forms.Create(ctx, &form); err != nil {
		return dto.FormResponse{}, err
	}

	s.logger.Info().
		Uint("form_id", form.ID).
		Str("association_type", form.AssociationType).
		Msg("form created")

	return dto.NewFormResponse(form), nil
}

func (s *formService) Update(ctx context.Context, id uint, payload dto.FormUpdateRequest) (dto.FormResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormResponse{}, ErrFormNotFound
		}
		return dto.FormResponse{}, err
	}

	if payload.Title != nil {
		form.Title = s.sanitizer.Sanitize(*payload.Title)
	}

	validFrom := form.ValidFrom
	validTo := form.ValidTo
	if payload.ValidFrom != nil {
		if validFrom, err = time.Parse(time.RFC3339, *payload.ValidFrom); err != nil {
			return dto.FormResponse{}, fmt.Errorf("invalid valid_from: %w", err)
		}
	}
	if payload.ValidTo != nil {
		if validTo, err = time.Parse(time.RFC3339, *payload.ValidTo); err != nil {
			return dto.FormResponse{}, fmt.Errorf("invalid valid_to: %w", err)
		}
	}
	if !validFrom.Before(validTo) {
		return dto.FormResponse{}, ErrInvalidWindow
	}
	form.ValidFrom = validFrom
	form.ValidTo = validTo

	associationChanged := payload.AssociationType != nil && *payload.AssociationType != form.AssociationType
	if payload.AssociationType != nil {
		form.AssociationType = *payload.AssociationType
	}

	targetsTouched := associationChanged ||
		payload.StudentIDs != nil || payload.GroupIDs != nil ||
		payload.SubGroupIDs != nil || payload.PromotionID != nil

	if targetsTouched {
		targets := targetSets{
			StudentIDs:  payload.StudentIDs,
			GroupIDs:    payload.GroupIDs,
			SubGroupIDs: payload.SubGroupIDs,
			PromotionID: payload.PromotionID,
		}
		// Switching association type drops the previous target sets so
		// exclusivity holds; otherwise untouched sets are carried over.
		if !associationChanged {
			if targets.StudentIDs == nil {
				targets.StudentIDs = studentIDs(form.Students)
			}
			if targets.GroupIDs == nil {
				targets.GroupIDs = groupIDs(form.Groups)
			}
			if targets.SubGroupIDs == nil {
				targets.SubGroupIDs = subGroupIDs(form.SubGroups)
			}
			if targets.PromotionID == nil {
				targets.PromotionID = form.PromotionID
			}
		}
		targets.restrictTo(form.AssociationType)
		if err := targets.checkExclusive(form.AssociationType); err != nil {
			return dto.FormResponse{}, err
		}

		form.PromotionID = targets.PromotionID
		if err := s.resolveTargets(ctx, &form, targets); err != nil {
			return dto.FormResponse{}, err
		}
		if err := s.forms.ReplaceTargets(ctx, &form, form.Students, form.Groups, form.SubGroups); err != nil {
			return dto.FormResponse{}, err
		}
	} else {
		if err := s.forms.Update(ctx, &form); err != nil {
			return dto.FormResponse{}, err
		}
	}

	if payload.Sections != nil {
		sections, err := s.buildSections(payload.Sections)
		if err != nil {
			return dto.FormResponse{}, err
		}
		if err := s.forms.ReplaceSections(ctx, &form, sections); err != nil {
			return dto.FormResponse{}, err
		}
	}

	s.logger.Info().Uint("form_id", form.ID).Msg("form updated")

	updated, err := s.forms.GetByID(ctx, form.ID)
	if err != nil {
		return dto.FormResponse{}, err
	}
	return dto.NewFormResponse(updated), nil
}

func (s *formService) List(ctx context.Context, payload dto.FormListRequest) (dto.FormListResponse, error) {
	page := payload.Page
	if page <= 0 {
		page = 1
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = 10
	}

	forms, total, err := s.forms.List(ctx, repository.FormFilter{
		AssociationType: payload.AssociationType,
		ProfessorID:     payload.ProfessorID,
		OnlyValid:       payload.OnlyValid,
		Now:             s.now(),
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		return dto.FormListResponse{}, err
	}

	return dto.FormListResponse{
		Items:      dto.NewFormResponseSlice(forms),
		Pagination: dto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *formService) Get(ctx context.Context, id uint) (dto.FormResponse, error) {
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormResponse{}, ErrFormNotFound
		}
		return dto.FormResponse{}, err
	}

	return dto.NewFormResponse(form), nil
}

func (s *formService) Delete(ctx context.Context, id uint) error {
	if err := s.forms.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFormNotFound
		}
		return err
	}

	s.logger.Info().Uint("form_id", id).Msg("form deleted")
	return nil
}

// Assign re-targets an existing form: a promotion level fans out to the
// promotion's groups, a subgroup level to its member students.
func (s *formService) Assign(ctx context.Context, id uint, payload dto.FormAssignRequest) (dto.FormResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormResponse{}, err
	}

	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormResponse{}, ErrFormNotFound
		}
		return dto.FormResponse{}, err
	}

	targets := targetSets{}
	switch payload.Level {
	case models.AssociationPromotion:
		groups, err := s.groups.ListByPromotion(ctx, payload.TargetID)
		if err != nil {
			return dto.FormResponse{}, err
		}
		if len(groups) == 0 {
			return dto.FormResponse{}, fmt.Errorf("%w: promotion has no groups", ErrInvalidAssociation)
		}
		form.AssociationType = models.AssociationGroup
		targets.GroupIDs = groupIDs(groups)
	case models.AssociationGroup:
		if _, err := s.groups.GetByID(ctx, payload.TargetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.FormResponse{}, ErrGroupNotFound
			}
			return dto.FormResponse{}, err
		}
		form.AssociationType = models.AssociationGroup
		targets.GroupIDs = []uint{payload.TargetID}
	case models.AssociationSubGroup:
		students, err := s.roster.MembersOf(ctx, models.AssociationSubGroup, payload.TargetID)
		if err != nil {
			return dto.FormResponse{}, err
		}
		if len(students) == 0 {
			return dto.FormResponse{}, fmt.Errorf("%w: subgroup has no students", ErrInvalidAssociation)
		}
		form.AssociationType = models.AssociationStudent
		targets.StudentIDs = studentIDs(students)
	case models.AssociationStudent:
		if _, err := s.students.GetByID(ctx, payload.TargetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.FormResponse{}, ErrStudentNotFound
			}
			return dto.FormResponse{}, err
		}
		form.AssociationType = models.AssociationStudent
		targets.StudentIDs = []uint{payload.TargetID}
	}

	form.PromotionID = nil
	if err := s.resolveTargets(ctx, &form, targets); err != nil {
		return dto.FormResponse{}, err
	}
	if err := s.forms.ReplaceTargets(ctx, &form, form.Students, form.Groups, form.SubGroups); err != nil {
		return dto.FormResponse{}, err
	}

	s.logger.Info().
		Uint("form_id", form.ID).
		Str("level", payload.Level).
		Uint("target_id", payload.TargetID).
		Msg("form assigned")

	updated, err := s.forms.GetByID(ctx, form.ID)
	if err != nil {
		return dto.FormResponse{}, err
	}
	return dto.NewFormResponse(updated), nil
}

// TargetStudents resolves the form's association into the concrete roster of
// students it covers.
func (s *formService) TargetStudents(ctx context.Context, id uint) ([]dto.StudentResponse, error) {
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	students, err := resolveRoster(ctx, s.roster, form)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *formService) Criteria(ctx context.Context, id uint) ([]dto.CriterionResponse, error) {
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	var criteria []dto.CriterionResponse
	for _, section := range form.Sections {
		for _, line := range section.Lines {
			criteria = append(criteria, dto.CriterionResponse{
				LineResponse: dto.NewLineResponse(line),
				SectionTitle: section.Title,
			})
		}
	}

	return criteria, nil
}

// Template builds the export header row: one column per line with its
// maximum score.
func (s *formService) Template(ctx context.Context, id uint) (dto.TemplateResponse, error) {
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TemplateResponse{}, ErrFormNotFound
		}
		return dto.TemplateResponse{}, err
	}

	response := dto.TemplateResponse{FormID: form.ID, Title: form.Title}
	for _, section := range form.Sections {
		for _, line := range section.Lines {
			response.Headers = append(response.Headers,
				fmt.Sprintf("%s - %s (/%g)", section.Title, line.Title, line.MaxScore))
			response.Maxima = append(response.Maxima, line.MaxScore)
		}
	}

	return response, nil
}

// buildSections validates the line rules and mints stable UIDs for new
// lines; UIDs echoed back by the client are preserved.
func (s *formService) buildSections(payload []dto.SectionRequest) ([]models.Section, error) {
	sections := make([]models.Section, 0, len(payload))
	for i, sectionPayload := range payload {
		section := models.Section{
			Position: i,
			Title:    s.sanitizer.Sanitize(sectionPayload.Title),
			Lines:    make([]models.Line, 0, len(sectionPayload.Lines)),
		}
		for j, linePayload := range sectionPayload.Lines {
			if err := checkLineScore(linePayload.Type, linePayload.MaxScore); err != nil {
				return nil, err
			}
			uid := linePayload.UID
			if uid == "" {
				uid = uuid.NewString()
			}
			section.Lines = append(section.Lines, models.Line{
				Position:     j,
				UID:          uid,
				Title:        s.sanitizer.Sanitize(linePayload.Title),
				MaxScore:     linePayload.MaxScore,
				Type:         linePayload.Type,
				NotationType: linePayload.NotationType,
			})
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// resolveTargets loads and attaches the association entities named by id,
// failing on unknown ids.
func (s *formService) resolveTargets(ctx context.Context, form *models.Form, targets targetSets) error {
	form.Students = nil
	form.Groups = nil
	form.SubGroups = nil

	switch form.AssociationType {
	case models.AssociationStudent:
		students, err := s.students.GetByIDs(ctx, targets.StudentIDs)
		if err != nil {
			return err
		}
		if len(students) != len(targets.StudentIDs) {
			return ErrStudentNotFound
		}
		form.Students = students
	case models.AssociationGroup:
		for _, groupID := range targets.GroupIDs {
			group, err := s.groups.GetByID(ctx, groupID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrGroupNotFound
				}
				return err
			}
			form.Groups = append(form.Groups, group)
		}
	case models.AssociationSubGroup:
		for _, subGroupID := range targets.SubGroupIDs {
			subGroup, err := s.subGroups.GetByID(ctx, subGroupID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSubGroupNotFound
				}
				return err
			}
			form.SubGroups = append(form.SubGroups, subGroup)
		}
	case models.AssociationPromotion:
		// PromotionID is validated by the foreign key on write; membership
		// checks happen against this single reference.
	}

	return nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	validFrom, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid valid_from: %w", err)
	}
	validTo, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid valid_to: %w", err)
	}
	if !validFrom.Before(validTo) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return validFrom, validTo, nil
}

func checkLineScore(lineType string, maxScore float64) error {
	switch lineType {
	case models.LineTypeBinary:
		if maxScore != 1 {
			return fmt.Errorf("%w: binary lines must have max score 1", ErrInvalidLineScore)
		}
	case models.LineTypeScale:
		if maxScore < 0 || maxScore > 8 {
			return fmt.Errorf("%w: scale lines must have max score in [0, 8]", ErrInvalidLineScore)
		}
	}
	return nil
}

// targetSets holds the four candidate association collections of a form.
type targetSets struct {
	StudentIDs  []uint
	GroupIDs    []uint
	SubGroupIDs []uint
	PromotionID *uint
}

// restrictTo drops every collection except the one matching the association
// type.
func (t *targetSets) restrictTo(associationType string) {
	if associationType != models.AssociationStudent {
		t.StudentIDs = nil
	}
	if associationType != models.AssociationGroup {
		t.GroupIDs = nil
	}
	if associationType != models.AssociationSubGroup {
		t.SubGroupIDs = nil
	}
	if associationType != models.AssociationPromotion {
		t.PromotionID = nil
	}
}

// checkExclusive enforces the exclusivity invariant: exactly one populated
// collection, matching the association type.
func (t targetSets) checkExclusive(associationType string) error {
	populated := 0
	if len(t.StudentIDs) > 0 {
		populated++
	}
	if len(t.GroupIDs) > 0 {
		populated++
	}
	if len(t.SubGroupIDs) > 0 {
		populated++
	}
	if t.PromotionID != nil {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("%w: %d target collections populated", ErrInvalidAssociation, populated)
	}

	switch associationType {
	case models.AssociationStudent:
		if len(t.StudentIDs) == 0 {
			return fmt.Errorf("%w: student form requires students", ErrInvalidAssociation)
		}
	case models.AssociationGroup:
		if len(t.GroupIDs) == 0 {
			return fmt.Errorf("%w: group form requires groups", ErrInvalidAssociation)
		}
	case models.AssociationSubGroup:
		if len(t.SubGroupIDs) == 0 {
			return fmt.Errorf("%w: subgroup form requires subgroups", ErrInvalidAssociation)
		}
	case models.AssociationPromotion:
		if t.PromotionID == nil {
			return fmt.Errorf("%w: promotion form requires a promotion", ErrInvalidAssociation)
		}
	}

	return nil
}

func studentIDs(students []models.Student) []uint {
	ids := make([]uint, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	return ids
}

func groupIDs(groups []models.Group) []uint {
	ids := make([]uint, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.ID)
	}
	return ids
}

func subGroupIDs(subGroups []models.SubGroup) []uint {
	ids := make([]uint, 0, len(subGroups))
	for _, subGroup := range subGroups {
		ids = append(ids, subGroup.ID)
	}
	return ids
}

// resolveRoster expands a form's association into the students it covers.
func resolveRoster(ctx context.Context, roster RosterService, form models.Form) ([]models.Student, error) {
	switch form.AssociationType {
	case models.AssociationStudent:
		return form.Students, nil
	case models.AssociationGroup:
		return rosterUnion(ctx, roster, models.AssociationGroup, groupIDs(form.Groups))
	case models.AssociationSubGroup:
		return rosterUnion(ctx, roster, models.AssociationSubGroup, subGroupIDs(form.SubGroups))
	case models.AssociationPromotion:
		if form.PromotionID == nil {
			return nil, nil
		}
		return roster.MembersOf(ctx, models.AssociationPromotion, *form.PromotionID)
	}
	return nil, nil
}

func rosterUnion(ctx context.Context, roster RosterService, kind string, ids []uint) ([]models.Student, error) {
	seen := make(map[uint]struct{})
	var union []models.Student
	for _, id := range ids {
		students, err := roster.MembersOf(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		for _, student := range students {
			if _, ok := seen[student.ID]; ok {
				continue
			}
			seen[student.ID] = struct{}{}
			union = append(union, student)
		}
	}
	return union, nil
}
