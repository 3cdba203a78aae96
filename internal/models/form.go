package models

import "time"

// Association types a form can target. Exactly one target collection is
// populated on a form and it must match AssociationType.
const (
	AssociationStudent   = "student"
	AssociationGroup     = "group"
	AssociationSubGroup  = "subgroup"
	AssociationPromotion = "promotion"
)

// Line scoring types.
const (
	LineTypeBinary = "binary"
	LineTypeScale  = "scale"
)

// Notation modes: how a line is scored against a multi-member target.
const (
	NotationCommon     = "common"
	NotationIndividual = "individual"
	NotationMixed      = "mixed"
)

// Form is a reusable scoring rubric owned by a professor. It is "active"
// while now is within [ValidFrom, ValidTo); the window only gates the
// valid-forms listing, never evaluation writes.
type Form struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProfessorID     uint       `gorm:"not null;index" json:"professor_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	AssociationType string     `gorm:"size:16;not null" json:"association_type"`
	ValidFrom       time.Time  `gorm:"not null" json:"valid_from"`
	ValidTo         time.Time  `gorm:"not null" json:"valid_to"`
	Sections        []Section  `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"sections"`
	Students        []Student  `gorm:"many2many:form_students" json:"students,omitempty"`
	Groups          []Group    `gorm:"many2many:form_groups" json:"groups,omitempty"`
	SubGroups       []SubGroup `gorm:"many2many:form_subgroups" json:"subgroups,omitempty"`
	PromotionID     *uint      `json:"promotion_id,omitempty"`
	Promotion       *Promotion `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the form's validity window covers the given time.
func (f Form) ActiveAt(reference time.Time) bool {
	return !reference.Before(f.ValidFrom) && reference.Before(f.ValidTo)
}

// Lines flattens the form's sections into its ordered list of lines.
func (f Form) Lines() []Line {
	var lines []Line
	for _, section := range f.Sections {
		lines = append(lines, section.Lines...)
	}
	return lines
}

// LineByUID looks up a line by its stable identifier.
func (f Form) LineByUID(uid string) (Line, bool) {
	for _, section := range f.Sections {
		for _, line := range section.Lines {
			if line.UID == uid {
				return line, true
			}
		}
	}
	return Line{}, false
}

// Section is an ordered group of lines within a form.
type Section struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FormID   uint   `gorm:"not null;index" json:"form_id"`
	Position int    `gorm:"not null" json:"position"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Lines    []Line `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"lines"`
}

// Line is one scoring criterion. UID is assigned once at creation and never
// reassigned, so historical evaluation scores keep resolving after the form
// sections are edited or reordered.
type Line struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	SectionID    uint    `gorm:"not null;index" json:"section_id"`
	Position     int     `gorm:"not null" json:"position"`
	UID          string  `gorm:"size:36;uniqueIndex;not null" json:"uid"`
	Title        string  `gorm:"size:255;not null" json:"title"`
	MaxScore     float64 `gorm:"not null" json:"max_score"`
	Type         string  `gorm:"size:16;not null" json:"type"`
	NotationType string  `gorm:"size:16;not null" json:"notation_type"`
}
