// Package reward implements threshold rewards. Achievements and badges are
// the same thing: a category, a requirement and a threshold value.
package reward

import (
	"errors"
	"fmt"

	"solo-rising/internal/model"
)

// Categories.
const (
	CategoryAchievement = "achievement"
	CategoryBadge       = "badge"
)

// Requirement types.
const (
	RequirementPoints   = "points"
	RequirementStreak   = "streak"
	RequirementWorkouts = "workouts"
)

// ErrInvalidRule is returned for catalog entries that cannot be evaluated.
var ErrInvalidRule = errors.New("invalid reward rule")

// Progress is the user state rewards are measured against.
type Progress struct {
	Points   int64
	Streak   int
	Workouts int64
}

// Value returns the progress counter a requirement is measured on.
func (p Progress) Value(requirement string) (int64, bool) {
	switch requirement {
	case RequirementPoints:
		return p.Points, true
	case RequirementStreak:
		return int64(p.Streak), true
	case RequirementWorkouts:
		return p.Workouts, true
	default:
		return 0, false
	}
}

// Validate checks a catalog entry.
func Validate(r model.Reward) error {
	if r.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRule)
	}
	if r.Category != CategoryAchievement && r.Category != CategoryBadge {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRule, r.Category)
	}
	if _, ok := (Progress{}).Value(r.Requirement); !ok {
		return fmt.Errorf("%w: unknown requirement %q", ErrInvalidRule, r.Requirement)
	}
	if r.RequirementValue < 0 {
		return fmt.Errorf("%w: negative threshold", ErrInvalidRule)
	}
	return nil
}

// Qualifies reports whether progress meets the reward's threshold.
func Qualifies(r model.Reward, p Progress) bool {
	v, ok := p.Value(r.Requirement)
	return ok && v >= r.RequirementValue
}

// Bonus is floor(threshold * 0.05) for point rewards and 0 otherwise.
func Bonus(r model.Reward) int64 {
	if r.Requirement != RequirementPoints || r.RequirementValue <= 0 {
		return 0
	}
	return r.RequirementValue / 20
}

// Pending returns the catalog entries that qualify and are not yet unlocked,
// in catalog order.
func Pending(catalog []model.Reward, unlocked map[int64]bool, p Progress) []model.Reward {
	var out []model.Reward
	for _, r := range catalog {
		if unlocked[r.ID] {
			continue
		}
		if Qualifies(r, p) {
			out = append(out, r)
		}
	}
	return out
}

// Cascade runs Pending until nothing new qualifies, adding each bonus to the
// points before the next pass. It returns the newly unlocked rewards and the
// total bonus. unlocked is updated in place.
func Cascade(catalog []model.Reward, unlocked map[int64]bool, p Progress) ([]model.Reward, int64) {
	var (
		newly []model.Reward
		bonus int64
	)
	for {
		pending := Pending(catalog, unlocked, p)
		if len(pending) == 0 {
			return newly, bonus
		}
		for _, r := range pending {
			unlocked[r.ID] = true
			b := Bonus(r)
			p.Points += b
			bonus += b
			newly = append(newly, r)
		}
	}
}
