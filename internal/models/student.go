package models

import "time"

// Year levels a student can be enrolled in.
const (
	YearLevelBUT1 = "BUT1"
	YearLevelBUT2 = "BUT2"
	YearLevelBUT3 = "BUT3"
)

// Student represents a learner that can be evaluated. A student may belong
// to several promotions, groups and subgroups over time; the Current*
// pointers mark the active affiliation among them.
type Student struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	FirstName          string      `gorm:"size:255;not null" json:"first_name"`
	LastName           string      `gorm:"size:255;not null" json:"last_name"`
	YearLevel          string      `gorm:"size:8;not null" json:"year_level"`
	StudentNumber      string      `gorm:"size:64;uniqueIndex;not null" json:"student_number"`
	Promotions         []Promotion `gorm:"many2many:student_promotions" json:"promotions,omitempty"`
	Groups             []Group     `gorm:"many2many:student_groups" json:"groups,omitempty"`
	SubGroups          []SubGroup  `gorm:"many2many:subgroup_students" json:"subgroups,omitempty"`
	CurrentPromotionID *uint       `json:"current_promotion_id,omitempty"`
	CurrentGroupID     *uint       `json:"current_group_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// InPromotion reports whether the student is a member of the given promotion.
func (s Student) InPromotion(promotionID uint) bool {
	for _, p := range s.Promotions {
		if p.ID == promotionID {
			return true
		}
	}
	return false
}

// InGroup reports whether the student is a member of the given group.
func (s Student) InGroup(groupID uint) bool {
	for _, g := range s.Groups {
		if g.ID == groupID {
			return true
		}
	}
	return false
}

// InSubGroup reports whether the student is a member of the given subgroup.
func (s Student) InSubGroup(subGroupID uint) bool {
	for _, sg := range s.SubGroups {
		if sg.ID == subGroupID {
			return true
		}
	}
	return false
}
