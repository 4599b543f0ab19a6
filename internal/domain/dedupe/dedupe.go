// Package dedupe detects repeated achievements so that near-identical
// submissions inside a recency window contribute progressively less.
package dedupe

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/okian/socgpa/internal/domain/model"
)

// Default grouping configuration constants.
const (
	DefaultWindow   = 365 * 24 * time.Hour
	DefaultMaxWords = 6
)

// Key identifies a group of achievements considered repeats of each other.
type Key struct {
	Category model.Category
	Scale    model.Scale
	Title    string
}

// Item is the subset of an achievement that grouping needs.
type Item struct {
	Category  model.Category
	Scale     model.Scale
	Title     string
	CreatedAt time.Time
}

// Grouper assigns repeat-dampening factors.
type Grouper struct {
	window   time.Duration
	maxWords int
}

// NewGrouper creates a Grouper with configuration options.
func NewGrouper(opts ...Option) *Grouper {
	g := &Grouper{
		window:   DefaultWindow,
		maxWords: DefaultMaxWords,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NormalizeTitle lowercases title, turns every rune that is neither a letter,
// a digit nor whitespace into a space, and keeps the first maxWords tokens.
func NormalizeTitle(title string, maxWords int) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(title))

	words := strings.Fields(mapped)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// Key returns the grouping key for it. Empty category and scale fall back to
// their defaults so that legacy rows still group together.
func (g *Grouper) Key(it Item) Key {
	cat := it.Category
	if cat == "" {
		cat = model.CategoryOther
	}
	scale := it.Scale
	if scale == "" {
		scale = model.ScaleSchool
	}
	return Key{Category: cat, Scale: scale, Title: NormalizeTitle(it.Title, g.maxWords)}
}

// RepeatFactors returns one factor per item. items must be ordered by
// CreatedAt ascending. The j-th member (1-indexed) of a group created within
// the window before now gets 1/sqrt(j); everything else gets 1.0.
func (g *Grouper) RepeatFactors(items []Item, now time.Time) []float64 {
	factors := make([]float64, len(items))
	cutoff := now.Add(-g.window)
	seen := make(map[Key]int)

	for i, it := range items {
		factors[i] = 1.0
		if it.CreatedAt.IsZero() || it.CreatedAt.Before(cutoff) {
			continue
		}
		key := g.Key(it)
		seen[key]++
		factors[i] = 1.0 / math.Sqrt(float64(seen[key]))
	}
	return factors
}
