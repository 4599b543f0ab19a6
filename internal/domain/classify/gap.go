package classify

import "github.com/okian/socgpa/internal/domain/model"

// BalancedProfileMessage is returned when every core category is covered.
const BalancedProfileMessage = "You already have a well-balanced profile. Focus on deeper, longer-term projects and leadership roles."

func gapMessage(c model.Category) string {
	switch c {
	case model.CategorySocial:
		return "Add volunteering or social impact projects to show your social responsibility."
	case model.CategoryResearch:
		return "Add olympiads, research projects or academic competitions to strengthen your academic profile."
	case model.CategoryCreative:
		return "Add creative or public speaking activities (debates, art, music, media)."
	case model.CategorySports:
		return "Add sports achievements or long-term sport involvement."
	case model.CategoryCompetence:
		return "Add leadership/mentoring or teamwork experiences to highlight key competencies."
	case model.CategoryOther:
		return ""
	default:
		return ""
	}
}

// GapRecommendations suggests up to three core categories the profile is
// missing once main is counted. The result is deterministic for equal input.
func GapRecommendations(main model.Category, profile *model.ProfileSummary) []string {
	counts := make(map[model.Category]int, len(model.CoreCategories))
	if profile != nil {
		for c, n := range profile.ByCategory {
			if c.IsCore() {
				counts[c] += n
			}
		}
	}
	if main.IsCore() {
		counts[main]++
	}

	recs := make([]string, 0, MaxRecommendations)
	for _, c := range model.CoreCategories {
		if counts[c] == 0 {
			recs = append(recs, gapMessage(c))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, BalancedProfileMessage)
	}
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
