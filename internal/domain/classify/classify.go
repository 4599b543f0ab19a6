// Package classify turns free-text achievement descriptions into structured,
// scored classifications.
//
// Classification is best effort: an Analyzer tries an ordered list of
// strategies (an optional remote AI service, then the local keyword
// heuristics) and falls back to a fixed minimal result, so callers always
// receive a complete Result.
package classify

import (
	"context"
	"math"

	"github.com/okian/socgpa/internal/domain/model"
)

// MaxRecommendations bounds Result.MissingRecommendations.
const MaxRecommendations = 3

// MaxTotalScore is the upper bound of Result.TotalScore: four dimensions of
// at most 25 points each.
const MaxTotalScore = 100.0

// Provider names the strategy that produced a Result.
type Provider string

// Known providers.
const (
	ProviderLocal       Provider = "local_fallback"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderSafeMinimal Provider = "safe_minimal_fallback"
)

// Scores holds the per-dimension points behind TotalScore.
type Scores struct {
	Category float64 `json:"category"`
	Scale    float64 `json:"scale"`
	Role     float64 `json:"role"`
	Duration float64 `json:"duration"`
}

// Sum adds the four dimensions.
func (s Scores) Sum() float64 {
	return s.Category + s.Scale + s.Role + s.Duration
}

// Result is a complete classification. Every field is always populated.
type Result struct {
	Category               model.Category `json:"category"`
	Scale                  model.Scale    `json:"scale"`
	Role                   model.Role     `json:"role_type"`
	DurationMonths         int            `json:"duration_months"`
	Scores                 Scores         `json:"scores"`
	TotalScore             float64        `json:"total_score"`
	Feedback               string         `json:"feedback"`
	MissingRecommendations []string       `json:"missing_recommendations"`
	Provider               Provider       `json:"provider"`
}

// Request describes one achievement to classify.
type Request struct {
	StudentName  string
	Title        string
	CategoryHint model.Category
	Description  string
	// ProofPath is a local file whose bytes are attached to remote requests.
	ProofPath string
	Profile   *model.ProfileSummary
}

// Input is what strategies receive: the request plus its encoded proof.
type Input struct {
	Request
	// EncodedProof is the base64 proof file, empty when there is none.
	EncodedProof string
}

// Strategy is one classification attempt. Implementations return an error
// instead of a partial Result.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, in Input) (Result, error)
}

// Fixed values used when a remote reply leaves fields out.
const (
	defaultDimensionScore = 10
	defaultTotalScore     = 40
	defaultFeedback       = "Solid achievement."
	safeFeedback          = "Achievement recorded. (safe fallback)"
)

func defaultScores() Scores {
	return Scores{
		Category: defaultDimensionScore,
		Scale:    defaultDimensionScore,
		Role:     defaultDimensionScore,
		Duration: defaultDimensionScore,
	}
}

// Default returns the fixed result shape used to back-fill incomplete
// remote replies.
func Default() Result {
	return Result{
		Category:               model.CategoryOther,
		Scale:                  model.ScaleSchool,
		Role:                   model.RoleParticipant,
		DurationMonths:         0,
		Scores:                 defaultScores(),
		TotalScore:             defaultTotalScore,
		Feedback:               defaultFeedback,
		MissingRecommendations: []string{},
	}
}

// SafeMinimal is the last-resort result. It keeps a valid category hint.
func SafeMinimal(hint model.Category) Result {
	res := Default()
	if hint.Valid() {
		res.Category = hint
	}
	res.Feedback = safeFeedback
	res.Provider = ProviderSafeMinimal
	return res
}

// Partial is a classification where any field may be missing, as decoded
// from a remote reply.
type Partial struct {
	Category               *string  `json:"category"`
	Scale                  *string  `json:"scale"`
	Role                   *string  `json:"role_type"`
	DurationMonths         *float64 `json:"duration_months"`
	Scores                 *Scores  `json:"scores"`
	TotalScore             *float64 `json:"total_score"`
	Feedback               *string  `json:"feedback"`
	MissingRecommendations []string `json:"missing_recommendations"`
}

// Backfill completes p with Default values. Enum values outside their
// domain are replaced by the domain default. Duration is clamped to
// [0, 12] months, TotalScore to [0, MaxTotalScore], and recommendations
// are capped.
func Backfill(p Partial, provider Provider) Result {
	res := Default()
	res.Provider = provider

	if p.Category != nil {
		res.Category, _ = model.ParseCategory(*p.Category)
	}
	if p.Scale != nil {
		res.Scale, _ = model.ParseScale(*p.Scale)
	}
	if p.Role != nil {
		res.Role, _ = model.ParseRole(*p.Role)
	}
	if p.DurationMonths != nil && *p.DurationMonths > 0 {
		// NaN fails the comparison above; +Inf is clamped here.
		res.DurationMonths = int(math.Round(min(*p.DurationMonths, maxDurationMonths)))
	}
	if p.Scores != nil {
		res.Scores = *p.Scores
	}
	if p.TotalScore != nil && !math.IsNaN(*p.TotalScore) {
		res.TotalScore = max(0, min(*p.TotalScore, MaxTotalScore))
	}
	if p.Feedback != nil {
		res.Feedback = *p.Feedback
	}
	if p.MissingRecommendations != nil {
		res.MissingRecommendations = capRecommendations(p.MissingRecommendations)
	}
	return res
}

func capRecommendations(recs []string) []string {
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
