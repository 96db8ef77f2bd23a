package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func ptr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		last     *time.Time
		previous int
		want     Result
	}{
		{"first workout ever", nil, 0, Result{Streak: 1, FirstToday: true}},
		{"same day keeps streak", ptr(now.Add(-2 * time.Hour)), 4, Result{Streak: 4}},
		{"same day after zero", ptr(now.Add(-time.Hour)), 0, Result{Streak: 1}},
		{"yesterday increments", ptr(now.Add(-20 * time.Hour)), 4, Result{Streak: 5, FirstToday: true}},
		{"yesterday just before midnight", ptr(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)), 1, Result{Streak: 2, FirstToday: true}},
		{"two days ago resets with penalty", ptr(now.AddDate(0, 0, -2)), 9, Result{Streak: 1, MissedDays: 1, Penalized: true, FirstToday: true}},
		{"week gap", ptr(now.AddDate(0, 0, -7)), 3, Result{Streak: 1, MissedDays: 6, Penalized: true, FirstToday: true}},
		{"future timestamp counts as today", ptr(now.Add(3 * time.Hour)), 2, Result{Streak: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.last, tt.previous, now, time.UTC))
		})
	}
}

func TestEvaluate_UsesLocation(t *testing.T) {
	// 23:30 UTC on the 9th is already the 10th in Tokyo.
	last := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, Evaluate(&last, 1, now, time.UTC).Streak)
	assert.Equal(t, 1, Evaluate(&last, 1, now, tokyo).Streak)
}

func TestSweepCutoffAndStale(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), SweepCutoff(now, time.UTC))

	assert.False(t, IsStale(nil, now, time.UTC))
	assert.False(t, IsStale(ptr(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)), now, time.UTC))
	assert.True(t, IsStale(ptr(time.Date(2024, 3, 8, 23, 59, 59, 0, time.UTC)), now, time.UTC))
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, tokyo)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, tokyo), NextMidnight(now, tokyo))
}

// TestSameDayStabilityProperty checks that repeated workouts on one day never
// change the streak or re-apply the penalty.
func TestSameDayStabilityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gap := rapid.IntRange(0, 30).Draw(t, "gapDays")
		previous := rapid.IntRange(0, 365).Draw(t, "previous")
		extra := rapid.IntRange(1, 10).Draw(t, "extraWorkouts")

		day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
		first := day.Add(time.Duration(rapid.IntRange(0, 11).Draw(t, "hour")) * time.Hour)
		last := first.AddDate(0, 0, -gap)

		r := Evaluate(&last, previous, first, time.UTC)
		streak := r.Streak
		at := first
		for i := 0; i < extra; i++ {
			next := at.Add(time.Duration(rapid.IntRange(0, 60).Draw(t, "minutes")) * time.Minute)
			again := Evaluate(&at, streak, next, time.UTC)
			if again.Streak != streak || again.Penalized || again.FirstToday {
				t.Fatalf("same-day workout changed ledger: %+v (streak %d)", again, streak)
			}
			at = next
		}
	})
}

// TestStreakTransitionsProperty checks the yesterday/gap rules for any gap.
func TestStreakTransitionsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gap := rapid.IntRange(1, 400).Draw(t, "gapDays")
		previous := rapid.IntRange(0, 365).Draw(t, "previous")
		now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
		last := now.AddDate(0, 0, -gap)

		r := Evaluate(&last, previous, now, time.UTC)
		switch {
		case gap == 1 && r.Streak != previous+1:
			t.Fatalf("yesterday: want %d, got %d", previous+1, r.Streak)
		case gap > 1 && (r.Streak != 1 || !r.Penalized || r.MissedDays != gap-1):
			t.Fatalf("gap %d: got %+v", gap, r)
		}
	})
}
