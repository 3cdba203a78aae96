package models

import "time"

// Promotion represents a student cohort (intake), e.g. "BUT2 Info / 2025".
type Promotion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Year        string    `gorm:"size:32;not null" json:"year"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Groups      []Group   `gorm:"foreignKey:PromotionID" json:"groups,omitempty"`
}
