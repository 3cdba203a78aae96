package service

import (
	"errors"
	"fmt"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/models"
)

// Sentinel errors for the evaluation consistency rules. Handlers map these
// onto HTTP statuses; the dry-run path reports the same kinds as strings.
var (
	ErrTypeMismatch            = errors.New("evaluation type does not match form association type")
	ErrTargetNotInForm         = errors.New("evaluation target is not associated with the form")
	ErrUnknownLine             = errors.New("score references a line that does not exist in the form")
	ErrNotationMismatch        = errors.New("score notation type does not match the form line")
	ErrMissingCommonScore      = errors.New("common notation requires a common score")
	ErrMissingIndividualScores = errors.New("individual notation requires at least one individual score")
	ErrMissingMixedScore       = errors.New("mixed notation requires a common score or individual scores")
	ErrScoreOutOfRange         = errors.New("score is outside the line's allowed range")
)

// Violation kinds reported by the dry-run preview and the failure metrics.
const (
	KindTypeMismatch            = "TypeMismatch"
	KindTargetNotInForm         = "TargetNotInForm"
	KindUnknownLine             = "UnknownLine"
	KindNotationMismatch        = "NotationMismatch"
	KindMissingCommonScore      = "MissingCommonScore"
	KindMissingIndividualScores = "MissingIndividualScores"
	KindMissingMixedScore       = "MissingMixedScore"
	KindScoreOutOfRange         = "ScoreOutOfRange"
)

var violationErrs = map[string]error{
	KindTypeMismatch:            ErrTypeMismatch,
	KindTargetNotInForm:         ErrTargetNotInForm,
	KindUnknownLine:             ErrUnknownLine,
	KindNotationMismatch:        ErrNotationMismatch,
	KindMissingCommonScore:      ErrMissingCommonScore,
	KindMissingIndividualScores: ErrMissingIndividualScores,
	KindMissingMixedScore:       ErrMissingMixedScore,
	KindScoreOutOfRange:         ErrScoreOutOfRange,
}

// ViolationKind returns the report kind for a validation sentinel, or "".
func ViolationKind(err error) string {
	for kind, sentinel := range violationErrs {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// evaluationCandidate is a prospective evaluation checked against its form
// before any write.
type evaluationCandidate struct {
	EvaluationType string
	StudentID      *uint
	GroupID        *uint
	SubGroupID     *uint
	PromotionID    *uint
	Scores         []dto.ScoreRequest
}

// validateEvaluation runs the full consistency gate: association-type match,
// target membership, line coverage, notation agreement and score shape. It
// stops at the first violation so the mutating create/update path rejects
// atomically.
func validateEvaluation(form models.Form, candidate evaluationCandidate) error {
	if err := validateTarget(form, candidate); err != nil {
		return err
	}

	for _, score := range candidate.Scores {
		if violation := checkScore(form, score); violation != nil {
			return fmt.Errorf("%w: %s", violationErrs[violation.Kind], violation.Detail)
		}
	}

	return nil
}

func validateTarget(form models.Form, candidate evaluationCandidate) error {
	if candidate.EvaluationType != form.AssociationType {
		return fmt.Errorf("%w: evaluation is %q, form is %q",
			ErrTypeMismatch, candidate.EvaluationType, form.AssociationType)
	}

	switch candidate.EvaluationType {
	case models.AssociationStudent:
		if candidate.StudentID == nil || !containsStudent(form.Students, *candidate.StudentID) {
			return fmt.Errorf("%w: student", ErrTargetNotInForm)
		}
	case models.AssociationGroup:
		if candidate.GroupID == nil || !containsGroup(form.Groups, *candidate.GroupID) {
			return fmt.Errorf("%w: group", ErrTargetNotInForm)
		}
	case models.AssociationSubGroup:
		if candidate.SubGroupID == nil || !containsSubGroup(form.SubGroups, *candidate.SubGroupID) {
			return fmt.Errorf("%w: subgroup", ErrTargetNotInForm)
		}
	case models.AssociationPromotion:
		if candidate.PromotionID == nil || form.PromotionID == nil || *candidate.PromotionID != *form.PromotionID {
			return fmt.Errorf("%w: promotion", ErrTargetNotInForm)
		}
	}

	return nil
}

// collectScoreViolations checks every score and reports all violations
// found, for the validate-scores preview.
func collectScoreViolations(form models.Form, scores []dto.ScoreRequest) []dto.ScoreViolation {
	var violations []dto.ScoreViolation
	for _, score := range scores {
		if violation := checkScore(form, score); violation != nil {
			violations = append(violations, *violation)
		}
	}
	return violations
}

// checkScore validates one score against its form line: the line must
// exist, the notation types must agree, and the value shape must match the
// notation variant.
func checkScore(form models.Form, score dto.ScoreRequest) *dto.ScoreViolation {
	line, ok := form.LineByUID(score.LineUID)
	if !ok {
		return &dto.ScoreViolation{
			Kind:    KindUnknownLine,
			LineUID: score.LineUID,
			Detail:  fmt.Sprintf("line %s does not exist in form %d", score.LineUID, form.ID),
		}
	}

	if score.NotationType != line.NotationType {
		return &dto.ScoreViolation{
			Kind:    KindNotationMismatch,
			LineUID: score.LineUID,
			Detail:  fmt.Sprintf("line %s expects %s notation, got %s", score.LineUID, line.NotationType, score.NotationType),
		}
	}

	hasCommon := score.CommonScore != nil
	hasIndividual := len(score.IndividualScores) > 0

	switch line.NotationType {
	case models.NotationCommon:
		if !hasCommon {
			return &dto.ScoreViolation{
				Kind:    KindMissingCommonScore,
				LineUID: score.LineUID,
				Detail:  fmt.Sprintf("line %s requires a common score", score.LineUID),
			}
		}
	case models.NotationIndividual:
		if !hasIndividual {
			return &dto.ScoreViolation{
				Kind:    KindMissingIndividualScores,
				LineUID: score.LineUID,
				Detail:  fmt.Sprintf("line %s requires individual scores", score.LineUID),
			}
		}
	case models.NotationMixed:
		if !hasCommon && !hasIndividual {
			return &dto.ScoreViolation{
				Kind:    KindMissingMixedScore,
				LineUID: score.LineUID,
				Detail:  fmt.Sprintf("line %s requires a common score or individual scores", score.LineUID),
			}
		}
	}

	if hasCommon {
		if *score.CommonScore < 0 || *score.CommonScore > line.MaxScore {
			return &dto.ScoreViolation{
				Kind:    KindScoreOutOfRange,
				LineUID: score.LineUID,
				Detail:  fmt.Sprintf("common score %.2f outside [0, %.2f] on line %s", *score.CommonScore, line.MaxScore, score.LineUID),
			}
		}
	}

	if hasIndividual {
		for _, individual := range score.IndividualScores {
			if individual.Score < 0 || individual.Score > line.MaxScore {
				return &dto.ScoreViolation{
					Kind:    KindScoreOutOfRange,
					LineUID: score.LineUID,
					Detail:  fmt.Sprintf("score %.2f for student %d outside [0, %.2f] on line %s", individual.Score, individual.StudentID, line.MaxScore, score.LineUID),
				}
			}
		}
	}

	return nil
}

func containsStudent(students []models.Student, id uint) bool {
	for _, student := range students {
		if student.ID == id {
			return true
		}
	}
	return false
}

func containsGroup(groups []models.Group, id uint) bool {
	for _, group := range groups {
		if group.ID == id {
			return true
		}
	}
	return false
}

func containsSubGroup(subGroups []models.SubGroup, id uint) bool {
	for _, subGroup := range subGroups {
		if subGroup.ID == id {
			return true
		}
	}
	return false
}
