// Package scoring turns a logged exercise into a points award.
//
// Every exercise carries a Rule. Adding a new exercise only requires
// registering it with a Rule; rules for new kinds of activity only need to
// implement the Rule interface.
package scoring

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrEmptyExercise   = errors.New("exercise type is required")
	ErrInvalidDuration = fmt.Errorf("duration must be between 1 and %d minutes", MaxDuration)
	ErrInvalidReps     = fmt.Errorf("reps must be between 0 and %d", MaxReps)
)

// Input bounds. A day holds at most MaxDuration minutes, and MaxReps keeps
// every rule's product far inside the stored column ranges.
const (
	MaxDuration = 24 * 60
	MaxReps     = 100000
)

// Kind groups rules for display.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindIsometric Kind = "isometric"
	KindDistance  Kind = "distance"
	KindSession   Kind = "session"
	KindSets      Kind = "sets"
)

// Rule computes the award for one workout before the duration bonus.
// duration is in minutes. reps is a repetition count for standard
// exercises, whole kilometres for distance exercises and the number of
// sets for set-based exercises.
type Rule interface {
	Kind() Kind
	Points(duration, reps int) int64
	Describe() string
}

// Standard awards base + floor(duration/5) + floor(reps/5).
type Standard struct{ Base int64 }

func (r Standard) Kind() Kind { return KindStandard }

func (r Standard) Points(duration, reps int) int64 {
	return r.Base + int64(duration/5) + int64(reps/5)
}

func (r Standard) Describe() string {
	return fmt.Sprintf("%d + 1 per 5 min + 1 per 5 reps", r.Base)
}

// Isometric awards a fixed number of points per minute held.
type Isometric struct{ PerMinute int64 }

func (r Isometric) Kind() Kind { return KindIsometric }

func (r Isometric) Points(duration, _ int) int64 { return r.PerMinute * int64(duration) }

func (r Isometric) Describe() string { return fmt.Sprintf("%d per minute", r.PerMinute) }

// Distance awards a fixed number of points per kilometre (carried in reps).
type Distance struct{ PerKm int64 }

func (r Distance) Kind() Kind { return KindDistance }

func (r Distance) Points(_, km int) int64 { return r.PerKm * int64(km) }

func (r Distance) Describe() string { return fmt.Sprintf("%d per km", r.PerKm) }

// Session awards a flat amount per session regardless of length.
type Session struct{ Flat int64 }

func (r Session) Kind() Kind { return KindSession }

func (r Session) Points(_, _ int) int64 { return r.Flat }

func (r Session) Describe() string { return fmt.Sprintf("%d per session", r.Flat) }

// Sets awards a fixed number of points per set (carried in reps).
type Sets struct{ PerSet int64 }

func (r Sets) Kind() Kind { return KindSets }

func (r Sets) Points(_, sets int) int64 { return r.PerSet * int64(sets) }

func (r Sets) Describe() string { return fmt.Sprintf("%d per set", r.PerSet) }

// Exercise is a registered exercise with its scoring rule.
type Exercise struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Rule        Rule   `json:"-"`
}

// Score is the breakdown of one award.
type Score struct {
	Exercise string `json:"exercise"`
	Base     int64  `json:"base"`
	Bonus    int64  `json:"bonus"`
	Total    int64  `json:"total"`
}

// BaseDuration is the length in minutes after which the duration bonus starts.
const BaseDuration = 30

// DurationBonus returns 5 points for each full 30 minutes beyond BaseDuration.
func DurationBonus(duration int) int64 {
	extra := duration - BaseDuration
	if extra <= 0 {
		return 0
	}
	return 5 * int64(extra/30)
}

// Validate rejects inputs that must never reach the ledger.
func Validate(exercise string, duration, reps int) error {
	if exercise == "" {
		return ErrEmptyExercise
	}
	if duration <= 0 || duration > MaxDuration {
		return ErrInvalidDuration
	}
	if reps < 0 || reps > MaxReps {
		return ErrInvalidReps
	}
	return nil
}

// Award scores a validated workout with the given exercise.
func Award(e Exercise, duration, reps int) Score {
	base := e.Rule.Points(duration, reps)
	if base < 0 {
		base = 0
	}
	bonus := DurationBonus(duration)
	return Score{Exercise: e.Key, Base: base, Bonus: bonus, Total: base + bonus}
}

// Coins converts awarded points to coins: floor(points / 10).
func Coins(points int64) int64 {
	if points <= 0 {
		return 0
	}
	return points / 10
}
