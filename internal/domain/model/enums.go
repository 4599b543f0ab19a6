package model

import "strings"

// Category is the activity track an achievement belongs to.
type Category string

// Achievement categories.
const (
	CategoryResearch   Category = "research"
	CategorySocial     Category = "social"
	CategoryCreative   Category = "creative"
	CategorySports     Category = "sports"
	CategoryCompetence Category = "competence"
	CategoryOther      Category = "other"
)

// CoreCategories lists the categories counted for profile balance, in the
// order gap recommendations are emitted. CategoryOther is not a core category.
var CoreCategories = []Category{ //nolint:gochecknoglobals // fixed enumeration
	CategorySocial,
	CategoryResearch,
	CategoryCreative,
	CategorySports,
	CategoryCompetence,
}

// ParseCategory maps s to a Category. Unknown values yield CategoryOther and false.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryResearch, CategorySocial, CategoryCreative, CategorySports, CategoryCompetence, CategoryOther:
		return c, true
	default:
		return CategoryOther, false
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryOther || c.IsCore()
}

// IsCore reports whether c counts toward profile balance.
func (c Category) IsCore() bool {
	switch c {
	case CategoryResearch, CategorySocial, CategoryCreative, CategorySports, CategoryCompetence:
		return true
	case CategoryOther:
		return false
	default:
		return false
	}
}

// Scale is the reach of the event behind an achievement.
type Scale string

// Achievement scales.
const (
	ScaleSchool        Scale = "school"
	ScaleCity          Scale = "city"
	ScaleNational      Scale = "national"
	ScaleInternational Scale = "international"
)

// ParseScale maps s to a Scale. Unknown values yield ScaleSchool and false.
func ParseScale(s string) (Scale, bool) {
	switch v := Scale(strings.ToLower(strings.TrimSpace(s))); v {
	case ScaleSchool, ScaleCity, ScaleNational, ScaleInternational:
		return v, true
	default:
		return ScaleSchool, false
	}
}

// Role is the part the student played.
type Role string

// Achievement roles.
const (
	RoleParticipant Role = "participant"
	RoleWinner      Role = "winner"
	RoleOrganizer   Role = "organizer"
	RoleLeader      Role = "leader"
)

// ParseRole maps s to a Role. Unknown values yield RoleParticipant and false.
func ParseRole(s string) (Role, bool) {
	switch v := Role(strings.ToLower(strings.TrimSpace(s))); v {
	case RoleParticipant, RoleWinner, RoleOrganizer, RoleLeader:
		return v, true
	default:
		return RoleParticipant, false
	}
}

// Status is the review state of an achievement.
type Status string

// Review states.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus maps s to a Status. Unknown values yield StatusPending and false.
func ParseStatus(s string) (Status, bool) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusPending, StatusApproved, StatusRejected:
		return v, true
	default:
		return StatusPending, false
	}
}
