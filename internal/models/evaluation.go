package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Evaluation is one completed scoring pass of a form against a specific
// target. EvaluationType must equal the form's AssociationType and the
// target reference must be part of the form's association set.
type Evaluation struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	FormID         uint       `gorm:"not null;index" json:"form_id"`
	Form           Form       `gorm:"foreignKey:FormID" json:"form,omitempty"`
	ProfessorID    uint       `gorm:"not null;index" json:"professor_id"`
	EvaluationType string     `gorm:"size:16;not null" json:"evaluation_type"`
	StudentID      *uint      `gorm:"index" json:"student_id,omitempty"`
	Student        *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	GroupID        *uint      `gorm:"index" json:"group_id,omitempty"`
	Group          *Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	SubGroupID     *uint      `gorm:"index" json:"subgroup_id,omitempty"`
	SubGroup       *SubGroup  `gorm:"foreignKey:SubGroupID" json:"subgroup,omitempty"`
	PromotionID    *uint      `gorm:"index" json:"promotion_id,omitempty"`
	Promotion      *Promotion `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"`
	TargetStudents []Student  `gorm:"many2many:evaluation_target_students" json:"target_students,omitempty"`
	Scores         []Score    `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE" json:"scores"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IndividualScore is one member score inside an individual or mixed notation.
type IndividualScore struct {
	StudentID uint    `json:"student_id"`
	Score     float64 `json:"score"`
}

// Score records the outcome for one line of the form. Its shape depends on
// NotationType: common carries CommonScore, individual carries
// IndividualScores, mixed carries at least one of the two.
type Score struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	EvaluationID     uint           `gorm:"not null;index" json:"evaluation_id"`
	LineUID          string         `gorm:"size:36;not null;index" json:"line_uid"`
	NotationType     string         `gorm:"size:16;not null" json:"notation_type"`
	CommonScore      *float64       `json:"common_score,omitempty"`
	IndividualScores datatypes.JSON `gorm:"type:json" json:"-"`
}

// SetIndividualScores serializes the member scores into the JSON column.
func (s *Score) SetIndividualScores(scores []IndividualScore) {
	if len(scores) == 0 {
		s.IndividualScores = nil
		return
	}
	data, err := json.Marshal(scores)
	if err != nil {
		s.IndividualScores = datatypes.JSON([]byte("[]"))
		return
	}
	s.IndividualScores = datatypes.JSON(data)
}

// IndividualScoreList deserializes the stored member scores.
func (s Score) IndividualScoreList() []IndividualScore {
	if len(s.IndividualScores) == 0 {
		return nil
	}
	var scores []IndividualScore
	if err := json.Unmarshal(s.IndividualScores, &scores); err != nil {
		return nil
	}
	return scores
}

// RawValues collects every raw score value recorded on this line: the common
// score when present plus each individual member score.
func (s Score) RawValues() []float64 {
	var values []float64
	if s.CommonScore != nil {
		values = append(values, *s.CommonScore)
	}
	for _, individual := range s.IndividualScoreList() {
		values = append(values, individual.Score)
	}
	return values
}
