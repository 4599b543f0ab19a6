// Package scoring computes the aggregate social score (Social GPA) from a
// student's approved achievements.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/okian/socgpa/internal/domain/dedupe"
	"github.com/okian/socgpa/internal/domain/model"
)

// BaseScore is the fixed contribution of one achievement before weighting.
const BaseScore = 10.0

// Display compression constants: display = displayScale * log10(1 + raw).
const (
	displayScale = 10.0
)

// Item is the subset of an achievement the aggregator reads.
type Item struct {
	Title          string
	Category       model.Category
	Scale          model.Scale
	Role           model.Role
	DurationMonths int
	CreatedAt      time.Time
}

// FromAchievements converts persisted achievements to scoring items.
func FromAchievements(achievements []model.Achievement) []Item {
	items := make([]Item, len(achievements))
	for i := range achievements {
		a := &achievements[i]
		items[i] = Item{
			Title:          a.Title,
			Category:       a.Category,
			Scale:          a.Scale,
			Role:           a.Role,
			DurationMonths: a.DurationMonths,
			CreatedAt:      a.CreatedAt,
		}
	}
	return items
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for the recency window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithGrouper sets the duplicate grouper.
func WithGrouper(g *dedupe.Grouper) Option {
	return func(a *Aggregator) {
		if g != nil {
			a.grouper = g
		}
	}
}

// Aggregator computes social scores. It holds no per-call state and is safe
// for concurrent use.
type Aggregator struct {
	now     func() time.Time
	grouper *dedupe.Grouper
}

// NewAggregator creates an Aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		now:     time.Now,
		grouper: dedupe.NewGrouper(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute returns the raw and display scores for items evaluated at the
// aggregator's current time.
func (a *Aggregator) Compute(items []Item) (raw, display float64) {
	return a.compute(items, a.now())
}

// ComputeSocialScore returns the raw weighted sum and the compressed display
// score for items evaluated at now, using the default grouper.
func ComputeSocialScore(items []Item, now time.Time) (raw, display float64) {
	return NewAggregator().compute(items, now)
}

func (a *Aggregator) compute(items []Item, now time.Time) (raw, display float64) {
	if len(items) == 0 {
		return 0, 0
	}

	ordered := make([]Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	groupItems := make([]dedupe.Item, len(ordered))
	for i, it := range ordered {
		groupItems[i] = dedupe.Item{
			Category:  it.Category,
			Scale:     it.Scale,
			Title:     it.Title,
			CreatedAt: it.CreatedAt,
		}
	}
	factors := a.grouper.RepeatFactors(groupItems, now)

	for i, it := range ordered {
		raw += Contribution(it) * factors[i]
	}
	return raw, DisplayScore(raw)
}

// Contribution is the undampened weighted score of one achievement.
func Contribution(it Item) float64 {
	return BaseScore *
		CategoryWeight(it.Category) *
		ScaleWeight(it.Scale) *
		RoleWeight(it.Role) *
		DurationWeight(it.DurationMonths)
}

// DisplayScore compresses raw into a human-scale value rounded to 2 decimals.
// Negative inputs are treated as zero.
func DisplayScore(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) {
		return 0
	}
	return math.Round(displayScale*math.Log10(1+raw)*100) / 100
}

// CategoryWeight returns the weight for c; unknown values weigh as other.
func CategoryWeight(c model.Category) float64 {
	switch c {
	case model.CategoryResearch:
		return 1.5
	case model.CategorySocial:
		return 1.4
	case model.CategoryCreative, model.CategorySports:
		return 1.1
	case model.CategoryCompetence:
		return 0.9
	case model.CategoryOther:
		return 0.7
	default:
		return 0.7
	}
}

// ScaleWeight returns the weight for s; unknown values weigh as school.
func ScaleWeight(s model.Scale) float64 {
	switch s {
	case model.ScaleSchool:
		return 1.0
	case model.ScaleCity:
		return 1.3
	case model.ScaleNational:
		return 2.0
	case model.ScaleInternational:
		return 3.0
	default:
		return 1.0
	}
}

// RoleWeight returns the weight for r; unknown values weigh as participant.
func RoleWeight(r model.Role) float64 {
	switch r {
	case model.RoleParticipant:
		return 0.7
	case model.RoleWinner, model.RoleOrganizer:
		return 1.6
	case model.RoleLeader:
		return 2.0
	default:
		return 0.7
	}
}

// DurationWeight is a step function of months.
func DurationWeight(months int) float64 {
	switch {
	case months <= 0:
		return 0.7
	case months <= 1:
		return 1.0
	case months <= 4:
		return 1.3
	case months <= 6:
		return 1.7
	default:
		return 2.0
	}
}
