package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"solo-rising/internal/model"
)

func withIDs(catalog []model.Reward) []model.Reward {
	out := make([]model.Reward, len(catalog))
	for i, r := range catalog {
		r.ID = int64(i + 1)
		out[i] = r
	}
	return out
}

func TestDefaultCatalogIsValid(t *testing.T) {
	names := map[string]bool{}
	for _, r := range DefaultCatalog {
		require.NoError(t, Validate(r), r.Name)
		assert.False(t, names[r.Name], "duplicate %s", r.Name)
		names[r.Name] = true
	}
}

func TestValidate(t *testing.T) {
	ok := model.Reward{Name: "x", Category: CategoryBadge, Requirement: RequirementStreak, RequirementValue: 3}
	assert.NoError(t, Validate(ok))

	bad := ok
	bad.Category = "trophy"
	assert.ErrorIs(t, Validate(bad), ErrInvalidRule)

	bad = ok
	bad.Requirement = "steps"
	assert.ErrorIs(t, Validate(bad), ErrInvalidRule)

	bad = ok
	bad.RequirementValue = -1
	assert.ErrorIs(t, Validate(bad), ErrInvalidRule)
}

func TestBonus(t *testing.T) {
	assert.Equal(t, int64(2), Bonus(points("a", "", "", 50)))
	assert.Equal(t, int64(5), Bonus(points("a", "", "", 100)))
	assert.Equal(t, int64(0), Bonus(points("a", "", "", 19)))
	assert.Equal(t, int64(0), Bonus(streakBadge("b", "", "", 100)))
	assert.Equal(t, int64(0), Bonus(workouts("c", "", "", 100)))
}

func TestCascade_FortyFiveToFiftyFive(t *testing.T) {
	catalog := []model.Reward{{ID: 1, Name: "Fifty", Category: CategoryAchievement, Requirement: RequirementPoints, RequirementValue: 50}}
	unlocked := map[int64]bool{}

	newly, bonus := Cascade(catalog, unlocked, Progress{Points: 45})
	assert.Empty(t, newly)
	assert.Zero(t, bonus)

	newly, bonus = Cascade(catalog, unlocked, Progress{Points: 55})
	require.Len(t, newly, 1)
	assert.Equal(t, int64(2), bonus)

	newly, bonus = Cascade(catalog, unlocked, Progress{Points: 57})
	assert.Empty(t, newly, "second pass must not unlock again")
	assert.Zero(t, bonus)
}

func TestCascade_BonusUnlocksNextTier(t *testing.T) {
	catalog := []model.Reward{
		{ID: 1, Name: "A", Category: CategoryAchievement, Requirement: RequirementPoints, RequirementValue: 200},
		{ID: 2, Name: "B", Category: CategoryAchievement, Requirement: RequirementPoints, RequirementValue: 205},
	}

	newly, bonus := Cascade(catalog, map[int64]bool{}, Progress{Points: 200})
	require.Len(t, newly, 2)
	assert.Equal(t, int64(10+10), bonus)
}

// TestCascadeIdempotentProperty checks that running the unlocker again with
// the resulting state never unlocks or pays anything twice.
func TestCascadeIdempotentProperty(t *testing.T) {
	catalog := withIDs(DefaultCatalog)

	rapid.Check(t, func(t *rapid.T) {
		p := Progress{
			Points:   rapid.Int64Range(0, 20000).Draw(t, "points"),
			Streak:   rapid.IntRange(0, 200).Draw(t, "streak"),
			Workouts: rapid.Int64Range(0, 200).Draw(t, "workouts"),
		}
		unlocked := map[int64]bool{}

		newly, bonus := Cascade(catalog, unlocked, p)
		seen := map[int64]bool{}
		for _, r := range newly {
			if seen[r.ID] {
				t.Fatalf("reward %d unlocked twice", r.ID)
			}
			seen[r.ID] = true
		}

		p.Points += bonus
		again, againBonus := Cascade(catalog, unlocked, p)
		if len(again) != 0 || againBonus != 0 {
			t.Fatalf("second run unlocked %d rewards, bonus %d", len(again), againBonus)
		}

		for _, r := range catalog {
			if Qualifies(r, p) && !unlocked[r.ID] {
				t.Fatalf("qualifying reward %q left locked", r.Name)
			}
		}
	})
}
