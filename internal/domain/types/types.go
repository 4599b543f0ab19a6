// Package types contains the request and response shapes shared by the
// service and the HTTP API.
package types

import (
	"strings"

	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/model"
)

// Submission is a new achievement as entered by a student.
type Submission struct {
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Category is an optional hint; unknown values are ignored.
	Category string `json:"category,omitempty"`
	// ProofPath is the stored location of an uploaded proof file, relative
	// to the upload directory or absolute inside it.
	ProofPath string `json:"proof_path,omitempty"`
}

// Validate checks the fields required to persist a submission.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrMissingUserID
	}
	return s.ValidateTitle()
}

// ValidateTitle checks the fields required to classify a submission.
func (s Submission) ValidateTitle() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrMissingTitle
	}
	return nil
}

// CategoryHint returns the parsed hint, or "" when absent or unknown.
func (s Submission) CategoryHint() model.Category {
	c, ok := model.ParseCategory(s.Category)
	if !ok {
		return ""
	}
	return c
}

// SubmissionResult is returned after an achievement is classified and stored.
type SubmissionResult struct {
	Achievement    model.Achievement `json:"achievement"`
	Classification classify.Result   `json:"classification"`
	CoinsEarned    int64             `json:"coins_earned"`
}

// Milestone is a Social GPA reward tier measured against total points.
type Milestone struct {
	Threshold float64 `json:"threshold"`
	Reward    string  `json:"reward"`
	Reached   bool    `json:"reached"`
}

// ScoreReport summarizes a student's standing.
type ScoreReport struct {
	UserID          string              `json:"user_id"`
	FullName        string              `json:"full_name"`
	RawScore        float64             `json:"raw_social_score"`
	SocialGPA       float64             `json:"social_gpa"`
	TotalPoints     float64             `json:"total_points"`
	ProgressPercent int                 `json:"progress_percent"`
	Recommendations []string            `json:"recommendations"`
	Milestones      []Milestone         `json:"milestones"`
	SocCoins        int64               `json:"soc_coins"`
	ApprovedCount   int                 `json:"approved_count"`
	Recent          []model.Achievement `json:"recent_achievements"`
}
