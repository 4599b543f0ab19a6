package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/socgpa/internal/domain/model"
)

type categoryRule struct {
	category model.Category
	terms    []string
}

type scaleRule struct {
	scale model.Scale
	terms []string
}

type roleRule struct {
	role  model.Role
	terms []string
}

type durationRule struct {
	months int
	terms  []string
}

// Rules are scanned in order; the first match wins.
var (
	categoryRules = []categoryRule{
		{model.CategoryResearch, []string{"олимпиад", "olymp", "competition", "contest", "hackathon", "research"}},
		{model.CategorySocial, []string{"volunteer", "волонтер", "волонтёр", "ngo", "community service"}},
		{model.CategoryCreative, []string{"art", "music", "dance", "drawing", "creative", "debate", "mun"}},
		{model.CategorySports, []string{"sport", "football", "basketball", "swimming", "tournament"}},
		{model.CategoryCompetence, []string{"leader", "leadership", "soft skills", "teamwork", "mentor"}},
	}

	scaleRules = []scaleRule{
		{model.ScaleInternational, []string{"international", "междунар", "world", "global"}},
		{model.ScaleNational, []string{"national", "республикан", "country-wide"}},
		{model.ScaleCity, []string{"city", "regional", "обл", "город"}},
	}

	roleRules = []roleRule{
		{model.RoleLeader, []string{"founder", "co-founder", "president", "captain", "chair", "leader"}},
		{model.RoleOrganizer, []string{"organizer", "organized", "организатор"}},
		{model.RoleWinner, []string{"1st place", "winner", "gold", "grand prix", "призер", "призёр"}},
	}

	// Later rules override earlier ones.
	durationRules = []durationRule{
		{6, []string{"6 months", "6 месяцев", "полгода"}},
		{12, []string{"1 year", "12 months", "год", "12 месяцев"}},
	}
)

const (
	defaultLocalDuration = 1
	maxDurationMonths    = 12
	defaultStudentName   = "Student"
)

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func detectCategory(hint model.Category, text string) model.Category {
	if hint.Valid() && hint != model.CategoryOther {
		return hint
	}
	for _, r := range categoryRules {
		if containsAny(text, r.terms) {
			return r.category
		}
	}
	return model.CategoryOther
}

func detectScale(text string) model.Scale {
	for _, r := range scaleRules {
		if containsAny(text, r.terms) {
			return r.scale
		}
	}
	return model.ScaleSchool
}

func detectRole(text string) model.Role {
	for _, r := range roleRules {
		if containsAny(text, r.terms) {
			return r.role
		}
	}
	return model.RoleParticipant
}

func detectDuration(text string) int {
	months := defaultLocalDuration
	for _, r := range durationRules {
		if containsAny(text, r.terms) {
			months = r.months
		}
	}
	return months
}

func categoryScore(c model.Category) float64 {
	switch c {
	case model.CategoryResearch, model.CategoryCompetence:
		return 20
	case model.CategorySocial, model.CategoryCreative, model.CategorySports, model.CategoryOther:
		return 15
	default:
		return 15
	}
}

func scaleScore(s model.Scale) float64 {
	switch s {
	case model.ScaleSchool:
		return 5
	case model.ScaleCity:
		return 10
	case model.ScaleNational:
		return 15
	case model.ScaleInternational:
		return 20
	default:
		return 5
	}
}

func roleScore(r model.Role) float64 {
	switch r {
	case model.RoleParticipant:
		return 5
	case model.RoleWinner:
		return 15
	case model.RoleOrganizer:
		return 12
	case model.RoleLeader:
		return 18
	default:
		return 5
	}
}

func durationScore(months int) float64 {
	months = max(0, min(months, maxDurationMonths))
	return float64(months) * 20 / maxDurationMonths
}

// Local classifies in by case-insensitive keyword matching over the title
// and description. It is deterministic and always returns a full Result.
func Local(in Input) Result {
	text := strings.ToLower(in.Title + " " + in.Description)

	category := detectCategory(in.CategoryHint, text)
	scale := detectScale(text)
	role := detectRole(text)
	months := detectDuration(text)

	scores := Scores{
		Category: categoryScore(category),
		Scale:    scaleScore(scale),
		Role:     roleScore(role),
		Duration: durationScore(months),
	}
	total := round1(scores.Sum())

	name := in.StudentName
	if strings.TrimSpace(name) == "" {
		name = defaultStudentName
	}

	return Result{
		Category:       category,
		Scale:          scale,
		Role:           role,
		DurationMonths: months,
		Scores:         scores,
		TotalScore:     total,
		Feedback: fmt.Sprintf("%s has an achievement in the '%s' track at %s level as %s. Estimated impact score: %.1f.",
			name, category, scale, role, total),
		MissingRecommendations: GapRecommendations(category, in.Profile),
		Provider:               ProviderLocal,
	}
}

// LocalStrategy adapts Local to the Strategy interface. It never fails.
type LocalStrategy struct{}

// Name returns the provider name.
func (LocalStrategy) Name() string { return string(ProviderLocal) }

// Classify runs Local.
func (LocalStrategy) Classify(_ context.Context, in Input) (Result, error) {
	return Local(in), nil
}
