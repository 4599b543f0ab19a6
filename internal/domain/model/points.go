package model

import "math"

const (
	maxDurationMonths    = 12
	durationMonthsDivide = 24.0
	approvedBonus        = 1.2
)

// CalculatePoints is the per-item point value used for point totals:
// base(category) * scale * role * (1 + min(months,12)/24) * verified(status),
// rounded to 2 decimals.
func CalculatePoints(cat Category, scale Scale, role Role, months int, status Status) float64 {
	if months < 0 {
		months = 0
	}
	durationMult := 1.0 + float64(min(months, maxDurationMonths))/durationMonthsDivide

	points := categoryBase(cat) * scaleMultiplier(scale) * roleMultiplier(role)
	points *= durationMult * verifiedMultiplier(status)

	return math.Round(points*100) / 100
}

func categoryBase(c Category) float64 {
	switch c {
	case CategoryResearch:
		return 9
	case CategorySocial:
		return 7
	case CategoryCreative, CategorySports:
		return 6
	case CategoryCompetence:
		return 8
	case CategoryOther:
		return 4
	default:
		return 4
	}
}

func scaleMultiplier(s Scale) float64 {
	switch s {
	case ScaleSchool:
		return 1.0
	case ScaleCity:
		return 1.1
	case ScaleNational:
		return 1.3
	case ScaleInternational:
		return 1.6
	default:
		return 1.0
	}
}

func roleMultiplier(r Role) float64 {
	switch r {
	case RoleParticipant:
		return 1.0
	case RoleWinner:
		return 1.4
	case RoleOrganizer:
		return 1.3
	case RoleLeader:
		return 1.6
	default:
		return 1.0
	}
}

// Pending keeps the neutral multiplier; only review outcomes change it.
func verifiedMultiplier(s Status) float64 {
	switch s {
	case StatusApproved:
		return approvedBonus
	case StatusRejected:
		return 0
	case StatusPending:
		return 1.0
	default:
		return 1.0
	}
}
