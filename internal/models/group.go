package models

import "time"

// Group is a teaching subdivision of exactly one promotion.
type Group struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	PromotionID uint       `gorm:"not null;index" json:"promotion_id"`
	Promotion   Promotion  `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"`
	SubGroups   []SubGroup `gorm:"foreignKey:GroupID" json:"subgroups,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SubGroup is a finer subdivision within a group (lab session, project team).
// PromotionID is denormalized from the owning group.
type SubGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Type        string    `gorm:"size:64;not null" json:"type"`
	GroupID     uint      `gorm:"not null;index" json:"group_id"`
	Group       Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	PromotionID uint      `gorm:"not null;index" json:"promotion_id"`
	Students    []Student `gorm:"many2many:subgroup_students" json:"students,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
