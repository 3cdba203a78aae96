package dto

import (
	"time"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// IndividualScoreRequest is one member score inside a score payload.
type IndividualScoreRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Score     float64 `json:"score"`
}

// ScoreRequest describes the recorded outcome for one form line. Which
// fields are required depends on NotationType: common needs CommonScore,
// individual needs IndividualScores, mixed needs at least one of the two.
type ScoreRequest struct {
	LineUID          string                   `json:"line_uid" validate:"required"`
	NotationType     string                   `json:"notation_type" validate:"required,oneof=common individual mixed"`
	CommonScore      *float64                 `json:"common_score"`
	IndividualScores []IndividualScoreRequest `json:"individual_scores" validate:"omitempty,dive"`
}

// EvaluationCreateRequest describes the payload for recording an evaluation.
type EvaluationCreateRequest struct {
	FormID           uint           `json:"form_id" validate:"required"`
	ProfessorID      uint           `json:"professor_id" validate:"required"`
	EvaluationType   string         `json:"evaluation_type" validate:"required,oneof=student group subgroup promotion"`
	StudentID        *uint          `json:"student_id"`
	GroupID          *uint          `json:"group_id"`
	SubGroupID       *uint          `json:"subgroup_id"`
	PromotionID      *uint          `json:"promotion_id"`
	TargetStudentIDs []uint         `json:"target_student_ids"`
	Scores           []ScoreRequest `json:"scores" validate:"required,min=1,dive"`
}

// EvaluationUpdateRequest captures partial update payloads. When Scores is
// supplied the full consistency validation re-runs against the merged
// evaluation, including any newly supplied target fields.
type EvaluationUpdateRequest struct {
	StudentID        *uint          `json:"student_id"`
	GroupID          *uint          `json:"group_id"`
	SubGroupID       *uint          `json:"subgroup_id"`
	PromotionID      *uint          `json:"promotion_id"`
	TargetStudentIDs []uint         `json:"target_student_ids"`
	Scores           []ScoreRequest `json:"scores" validate:"omitempty,min=1,dive"`
}

// EvaluationListRequest defines query parameters for listing evaluations.
type EvaluationListRequest struct {
	FormID      *uint `query:"form"`
	ProfessorID *uint `query:"professor"`
	StudentID   *uint `query:"student"`
	GroupID     *uint `query:"group"`
	SubGroupID  *uint `query:"subgroup"`
	PromotionID *uint `query:"promotion"`
	Page        int   `query:"page"`
	Limit       int   `query:"limit"`
}

// BulkEvaluationItem is one entry in a bulk-create payload.
type BulkEvaluationItem struct {
	StudentID        *uint          `json:"student_id"`
	GroupID          *uint          `json:"group_id"`
	SubGroupID       *uint          `json:"subgroup_id"`
	PromotionID      *uint          `json:"promotion_id"`
	TargetStudentIDs []uint         `json:"target_student_ids"`
	Scores           []ScoreRequest `json:"scores" validate:"required,min=1,dive"`
}

// BulkEvaluationCreateRequest records several evaluations against one form
// in a single call. Items fail independently.
type BulkEvaluationCreateRequest struct {
	FormID         uint                 `json:"form_id" validate:"required"`
	ProfessorID    uint                 `json:"professor_id" validate:"required"`
	EvaluationType string               `json:"evaluation_type" validate:"required,oneof=student group subgroup promotion"`
	Evaluations    []BulkEvaluationItem `json:"evaluations" validate:"required,min=1"`
}

// BulkEvaluationOutcome reports the per-item result of a bulk create.
type BulkEvaluationOutcome struct {
	Index      int                 `json:"index"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// BulkEvaluationResponse summarises a bulk create.
type BulkEvaluationResponse struct {
	Created  int                     `json:"created"`
	Failed   int                     `json:"failed"`
	Outcomes []BulkEvaluationOutcome `json:"outcomes"`
}

// ValidateScoresRequest is the dry-run preview payload: scores checked
// against a form without persisting anything.
type ValidateScoresRequest struct {
	FormID uint           `json:"form_id" validate:"required"`
	Scores []ScoreRequest `json:"scores" validate:"required,min=1,dive"`
}

// ScoreViolation identifies one failed validation rule.
type ScoreViolation struct {
	Kind    string `json:"kind"`
	LineUID string `json:"line_uid,omitempty"`
	Detail  string `json:"detail"`
}

// ValidateScoresResponse reports the dry-run outcome with every violation
// found, not just the first.
type ValidateScoresResponse struct {
	Valid      bool             `json:"valid"`
	Violations []ScoreViolation `json:"violations,omitempty"`
}

// IndividualScoreResponse serializes one member score.
type IndividualScoreResponse struct {
	StudentID uint    `json:"student_id"`
	Score     float64 `json:"score"`
}

// ScoreResponse serializes a recorded score.
type ScoreResponse struct {
	LineUID          string                    `json:"line_uid"`
	NotationType     string                    `json:"notation_type"`
	CommonScore      *float64                  `json:"common_score,omitempty"`
	IndividualScores []IndividualScoreResponse `json:"individual_scores,omitempty"`
}

// EvaluationResponse is the serialized representation returned to clients.
type EvaluationResponse struct {
	ID             uint              `json:"id"`
	FormID         uint              `json:"form_id"`
	ProfessorID    uint              `json:"professor_id"`
	EvaluationType string            `json:"evaluation_type"`
	StudentID      *uint             `json:"student_id,omitempty"`
	GroupID        *uint             `json:"group_id,omitempty"`
	SubGroupID     *uint             `json:"subgroup_id,omitempty"`
	PromotionID    *uint             `json:"promotion_id,omitempty"`
	TargetStudents []StudentResponse `json:"target_students,omitempty"`
	Scores         []ScoreResponse   `json:"scores"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// EvaluationListResponse wraps a paginated evaluation listing.
type EvaluationListResponse struct {
	Items      []EvaluationResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// EvaluationContextResponse bundles a form's roster with its existing
// evaluations, for scoring-session UIs.
type EvaluationContextResponse struct {
	Form                FormResponse         `json:"form"`
	TargetStudents      []StudentResponse    `json:"target_students"`
	ExistingEvaluations []EvaluationResponse `json:"existing_evaluations"`
	TotalEvaluations    int                  `json:"total_evaluations"`
	EvaluatedStudents   int                  `json:"evaluated_students"`
}

// NewScoreResponse converts a model into a DTO.
func NewScoreResponse(model models.Score) ScoreResponse {
	response := ScoreResponse{
		LineUID:      model.LineUID,
		NotationType: model.NotationType,
		CommonScore:  model.CommonScore,
	}
	for _, individual := range model.IndividualScoreList() {
		response.IndividualScores = append(response.IndividualScores, IndividualScoreResponse{
			StudentID: individual.StudentID,
			Score:     individual.Score,
		})
	}
	return response
}

// NewEvaluationResponse converts a model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	response := EvaluationResponse{
		ID:             model.ID,
		FormID:         model.FormID,
		ProfessorID:    model.ProfessorID,
		EvaluationType: model.EvaluationType,
		StudentID:      model.StudentID,
		GroupID:        model.GroupID,
		SubGroupID:     model.SubGroupID,
		PromotionID:    model.PromotionID,
		Scores:         make([]ScoreResponse, 0, len(model.Scores)),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
	for _, student := range model.TargetStudents {
		response.TargetStudents = append(response.TargetStudents, NewStudentResponse(student))
	}
	for _, score := range model.Scores {
		response.Scores = append(response.Scores, NewScoreResponse(score))
	}
	return response
}

// NewEvaluationResponseSlice converts a slice of models into DTOs.
func NewEvaluationResponseSlice(evaluations []models.Evaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}
	return responses
}
