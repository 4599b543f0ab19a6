// Package model contains domain models passed between layers.
package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Achievement is a single submitted record of student activity.
// TotalPoints is derived: BeforeSave recomputes it from the scored fields,
// so any value assigned by callers is overwritten on write.
type Achievement struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	UserID         string         `gorm:"index;size:64;not null" json:"user_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `json:"description"`
	Category       Category       `gorm:"size:30;default:other" json:"category"`
	Scale          Scale          `gorm:"size:30;default:school" json:"scale"`
	Role           Role           `gorm:"column:role_type;size:30;default:participant" json:"role_type"`
	DurationMonths int            `gorm:"default:0" json:"duration_months"`
	ProofFile      string         `gorm:"size:255" json:"proof_file,omitempty"`
	Status         Status         `gorm:"size:20;index;default:pending" json:"status"`
	AIRawResponse  datatypes.JSON `json:"ai_raw_response,omitempty"`
	TotalPoints    float64        `json:"total_points"`
	CreatedAt      time.Time      `gorm:"<-:create;index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BeforeSave keeps TotalPoints in sync with the scored fields.
func (a *Achievement) BeforeSave(_ *gorm.DB) error {
	a.TotalPoints = a.CalculatePoints()
	return nil
}

// CalculatePoints returns the per-item point value for the record.
func (a *Achievement) CalculatePoints() float64 {
	return CalculatePoints(a.Category, a.Scale, a.Role, a.DurationMonths, a.Status)
}

// User holds the parts of a student account the scoring flow touches.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	SocCoins  int64     `gorm:"default:0" json:"soc_coins"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileSummary counts a student's existing approved achievements.
type ProfileSummary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
}

// BuildProfileSummary counts approved achievements per category, skipping excludeID.
func BuildProfileSummary(achievements []Achievement, excludeID string) ProfileSummary {
	summary := ProfileSummary{ByCategory: make(map[Category]int)}
	for i := range achievements {
		a := &achievements[i]
		if a.ID == excludeID || a.Status != StatusApproved {
			continue
		}
		cat := a.Category
		if cat == "" {
			cat = CategoryOther
		}
		summary.ByCategory[cat]++
		summary.Total++
	}
	return summary
}
