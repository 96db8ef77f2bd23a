package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solo-rising/internal/cache"
	"solo-rising/internal/config"
	"solo-rising/internal/model"
	"solo-rising/internal/notify"
	"solo-rising/internal/pkg/dbtest"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/reward"
	"solo-rising/internal/scoring"
	"solo-rising/internal/shop"
)

type testEnv struct {
	users    *repository.UserRepository
	cache    *cache.LRU
	profiles *ProfileService
	workouts *WorkoutService
	rewards  *RewardService
	tasks    *TaskService
	store    *StoreService
	sweep    *SweepService
	ranking  *RankingService
	clock    time.Time
}

func (e *testEnv) setNow(t time.Time) {
	e.clock = t
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pool, cleanup := dbtest.Setup(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	workouts := repository.NewWorkoutRepository(pool)
	ledger := repository.NewLedgerRepository(pool)
	rewards := repository.NewRewardRepository(pool)
	tasks := repository.NewTaskRepository(pool)
	inventory := repository.NewInventoryRepository(pool)

	lc, err := cache.NewLRU(64, 0)
	require.NoError(t, err)

	locks := lock.NewUserLock()
	ledgerCfg := config.LedgerConfig{Timezone: "UTC", MissPenalty: 50, LockTimeout: 5 * time.Second}

	env := &testEnv{users: users, cache: lc, clock: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	now := func() time.Time { return env.clock }

	env.rewards = NewRewardService(pool, users, workouts, ledger, rewards, locks, lc, nil, ledgerCfg.LockTimeout)
	env.rewards.now = now
	require.NoError(t, env.rewards.Seed(ctx, reward.DefaultCatalog))

	env.workouts = NewWorkoutService(pool, users, workouts, ledger, scoring.NewDefaultRegistry(), env.rewards, locks, lc, ledgerCfg)
	env.workouts.now = now

	env.profiles = NewProfileService(pool, users, ledger, lc)
	env.tasks = NewTaskService(pool, users, tasks, env.workouts, 3)
	env.store = NewStoreService(pool, users, ledger, inventory, locks, lc, ledgerCfg.LockTimeout)
	env.sweep = NewSweepService(users, lc, time.UTC, 2)
	env.ranking = NewRankingService(users, ledger, time.UTC)
	env.ranking.now = now
	return env
}

func (e *testEnv) newUser(t *testing.T, id int64) {
	t.Helper()
	_, created, err := e.profiles.EnsureUser(context.Background(), id, "hunter", "KR")
	require.NoError(t, err)
	require.True(t, created)
}

func unlockedNames(unlocks []Unlock) []string {
	names := make([]string, 0, len(unlocks))
	for _, u := range unlocks {
		names = append(names, u.Reward.Name)
	}
	return names
}

func TestWorkout_PushUpsExampleAndSameDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	res, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "Push-ups", Duration: 30, Reps: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Score.Total)
	assert.Equal(t, int64(2), res.CoinsEarned)
	assert.Equal(t, 1, res.User.Streak)
	assert.Equal(t, int64(20), res.User.Points)
	assert.Equal(t, []string{"First Quest"}, unlockedNames(res.Unlocked))

	env.setNow(env.clock.Add(3 * time.Hour))
	res, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "pushups", Duration: 30, Reps: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, res.User.Streak, "same day keeps the streak")
	assert.Zero(t, res.Penalty)
	assert.Equal(t, int64(40), res.User.Points)
	assert.Equal(t, int64(4), res.User.Coins)
	assert.Empty(t, res.Unlocked)

	cached, ok := env.cache.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(40), cached.Points, "cache holds the committed row")
}

func TestWorkout_YesterdayIncrementsStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	for day := 0; day < 3; day++ {
		env.setNow(time.Date(2024, 5, 1+day, 23, 30, 0, 0, time.UTC))
		res, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "squats", Duration: 10, Reps: 10})
		require.NoError(t, err)
		assert.Equal(t, day+1, res.User.Streak)
	}

	user, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, user.LongestStreak)

	list, err := env.rewards.ListForUser(ctx, 1)
	require.NoError(t, err)
	for _, r := range list {
		if r.Name == "Warming Up" {
			assert.True(t, r.Unlocked, "3-day streak badge")
		}
	}
}

func TestWorkout_GapAppliesFlooredPenalty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	lastWorkout := time.Date(2024, 4, 28, 9, 0, 0, 0, time.UTC)
	_, err := env.users.ApplyWorkout(ctx, 1, 80, 0, 5, lastWorkout)
	require.NoError(t, err)

	res, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 30, Reps: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Penalty)
	assert.Equal(t, 2, res.MissedDays)
	assert.Equal(t, 1, res.User.Streak)
	// 80 - 50 + 20 = 50 reaches the 50-point achievement (+2).
	assert.Equal(t, int64(52), res.User.Points)
	assert.Contains(t, unlockedNames(res.Unlocked), "E-Rank Hunter")

	// a second gap workout for a user with fewer points than the penalty
	env.newUser(t, 2)
	_, err = env.users.ApplyWorkout(ctx, 2, 10, 0, 1, lastWorkout)
	require.NoError(t, err)
	res, err = env.workouts.Log(ctx, 2, WorkoutInput{Exercise: "yoga", Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Penalty, "points never go below zero")
	assert.Equal(t, int64(15), res.User.Points)

	history, err := env.profiles.History(ctx, 2, 10)
	require.NoError(t, err)
	types := map[string]int64{}
	for _, e := range history {
		types[e.Type] += e.Points
	}
	assert.Equal(t, int64(-10), types[model.EntryMissPenalty])
	assert.Equal(t, int64(15), types[model.EntryWorkout])
}

func TestRewards_FortyFiveToFiftyFive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	_, err := env.users.ApplyWorkout(ctx, 1, 45, 0, 1, env.clock.Add(-time.Hour))
	require.NoError(t, err)

	unlocked, err := env.rewards.Check(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unlocked, "45 points unlocks nothing")

	// push-ups, 1 minute, 0 reps: 10 points
	res, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Score.Total)
	assert.ElementsMatch(t, []string{"First Quest", "E-Rank Hunter"}, unlockedNames(res.Unlocked))
	assert.Equal(t, int64(57), res.User.Points)

	unlocked, err = env.rewards.Check(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unlocked, "unlocking is idempotent")

	user, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(57), user.Points, "no second bonus")

	pending, err := env.rewards.Notifications(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pending, err = env.rewards.Notifications(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, pending, "notifications are delivered once")
}

func TestWorkout_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	_, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 0, Reps: 5})
	assert.ErrorIs(t, err, ErrInvalidWorkout)
	assert.ErrorIs(t, err, scoring.ErrInvalidDuration)

	_, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "  ", Duration: 10})
	assert.ErrorIs(t, err, scoring.ErrEmptyExercise)

	_, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 10, Reps: -1})
	assert.ErrorIs(t, err, scoring.ErrInvalidReps)

	_, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: math.MaxInt32 + 1})
	assert.ErrorIs(t, err, scoring.ErrInvalidDuration)
	assert.NotErrorIs(t, err, ErrLedgerUnavailable)

	_, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "running", Duration: 30, Reps: scoring.MaxReps + 1})
	assert.ErrorIs(t, err, scoring.ErrInvalidReps)

	_, err = env.workouts.Log(ctx, 99, WorkoutInput{Exercise: "push-ups", Duration: 10})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	user, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, user.Points)
	assert.Nil(t, user.LastWorkoutAt)
}

func TestWorkout_ConcurrentLogsSerialize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 30, Reps: 20})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	// 10 x 20 points, plus the 50 (+2) and 100 (+5) point achievements
	assert.Equal(t, int64(207), user.Points)
	assert.Equal(t, int64(20), user.Coins)
	assert.Equal(t, 1, user.Streak)
}

func TestSweep_ResetsStaleStreaksIdempotently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2024, 5, 10, 0, 5, 0, 0, time.UTC)
	fixtures := []struct {
		id     int64
		last   time.Time
		streak int
		reset  bool
	}{
		{1, now.AddDate(0, 0, -3), 4, true},
		{2, now.AddDate(0, 0, -1), 2, false},
		{3, now.Add(-10 * time.Minute), 1, false},
		{4, now.AddDate(0, 0, -2), 7, true},
		{5, now.AddDate(0, 0, -5), 0, false},
	}
	for _, f := range fixtures {
		env.newUser(t, f.id)
		_, err := env.users.ApplyWorkout(ctx, f.id, 100, 0, f.streak, f.last)
		require.NoError(t, err)
	}

	result, err := env.sweep.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Processed)
	assert.Equal(t, 2, result.Reset)
	assert.Zero(t, result.Failed)

	for _, f := range fixtures {
		user, err := env.users.GetByID(ctx, f.id)
		require.NoError(t, err)
		if f.reset {
			assert.Zero(t, user.Streak, "user %d", f.id)
		} else {
			assert.Equal(t, f.streak, user.Streak, "user %d", f.id)
		}
		assert.Equal(t, int64(100), user.Points, "the sweep never penalizes")
	}

	cached, ok := env.cache.Get(ctx, 1)
	require.True(t, ok)
	assert.Zero(t, cached.Streak, "the sweep refreshes the cached row")
	assert.Equal(t, int64(100), cached.Points)

	again, err := env.sweep.Run(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, again.Reset)
}

func TestLedgerCache_NeverServesOlderSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	before, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)

	_, err = env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 30, Reps: 20})
	require.NoError(t, err)

	// a read-through that loaded the row before the workout writes late
	env.cache.Set(ctx, before)

	user, err := env.profiles.GetLedger(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), user.Points)
	assert.Greater(t, user.Version, before.Version)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "squats", Duration: 5})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			// the read-through path: load from the database, then cache
			row, err := env.users.GetByID(ctx, 1)
			if assert.NoError(t, err) {
				env.cache.Set(ctx, row)
			}
		}()
	}
	wg.Wait()

	stored, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	cached, err := env.profiles.GetLedger(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stored.Points, cached.Points)
	assert.Equal(t, stored.Version, cached.Version)
}

func TestTasks_DailyCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	var ids []int64
	for i := 0; i < 4; i++ {
		task, err := env.tasks.Create(ctx, 1, TaskInput{Exercise: "Squat", Duration: 20, Reps: 25})
		require.NoError(t, err)
		assert.Equal(t, "squats", task.ExerciseType)
		ids = append(ids, task.ID)
	}

	for _, id := range ids[:3] {
		res, err := env.tasks.Complete(ctx, 1, id)
		require.NoError(t, err)
		assert.Equal(t, model.SourceTask, res.Workout.Source)
	}

	before, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)

	_, err = env.tasks.Complete(ctx, 1, ids[3])
	assert.ErrorIs(t, err, ErrDailyTaskLimit)

	after, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Points, after.Points)

	_, err = env.tasks.Complete(ctx, 1, ids[0])
	assert.ErrorIs(t, err, repository.ErrTaskCompleted)

	_, err = env.tasks.Complete(ctx, 2, ids[3])
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	list, err := env.tasks.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Nil(t, list[3].CompletedAt, "a capped task stays open")

	// the cap is per calendar day
	env.setNow(env.clock.AddDate(0, 0, 1))
	_, err = env.tasks.Complete(ctx, 1, ids[3])
	require.NoError(t, err)

	n, err := env.tasks.CompletedToday(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTasks_Create_RejectsPastDay(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, 1)

	_, err := env.tasks.Create(context.Background(), 1, TaskInput{
		Exercise: "squats", Duration: 10, ScheduledFor: env.clock.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, ErrInvalidWorkout)

	_, err = env.tasks.Create(context.Background(), 9, TaskInput{Exercise: "squats", Duration: 10})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStore_Purchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)
	_, err := env.users.ApplyWorkout(ctx, 1, 0, 100, 1, env.clock)
	require.NoError(t, err)

	p, err := env.store.Purchase(ctx, 1, shop.ItemFlameAura)
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.User.Coins)

	_, err = env.store.Purchase(ctx, 1, shop.ItemFlameAura)
	assert.ErrorIs(t, err, ErrItemOwned)

	_, err = env.store.Purchase(ctx, 1, shop.ItemMonarchTitle)
	assert.ErrorIs(t, err, repository.ErrInsufficientCoins)

	_, err = env.store.Purchase(ctx, 1, shop.ItemSenzuBean)
	assert.ErrorIs(t, err, ErrItemUnavailable)

	_, err = env.store.Purchase(ctx, 1, "dragon_ball")
	assert.ErrorIs(t, err, ErrItemNotFound)

	for i := 1; i <= 2; i++ {
		p, err = env.store.Purchase(ctx, 1, shop.ItemProteinShake)
		require.NoError(t, err)
		assert.Equal(t, i, p.Quantity)
	}

	user, err := env.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), user.Coins)

	items, err := env.store.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestProfile_CharacterAndTelegram(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)
	env.newUser(t, 2)

	_, err := env.profiles.SetCharacter(ctx, 1, "vegeta")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	user, err := env.profiles.SetCharacter(ctx, 1, "Goku")
	require.NoError(t, err)
	assert.Equal(t, model.CharacterGoku, *user.CharacterType)

	_, err = env.profiles.SetCharacter(ctx, 1, "saitama")
	assert.ErrorIs(t, err, repository.ErrCharacterAlreadySet)

	_, err = env.profiles.LinkTelegram(ctx, 1, 555)
	require.NoError(t, err)
	_, err = env.profiles.LinkTelegram(ctx, 2, 555)
	require.NoError(t, err)

	owner, err := env.profiles.GetByTelegramChat(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, int64(2), owner.ID)

	first, err := env.profiles.GetLedger(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, first.TelegramChatID, "the old owner's cache entry is refreshed")
}

func TestRanking_TopAndDaily(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)
	env.newUser(t, 2)

	_, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "burpees", Duration: 30, Reps: 30})
	require.NoError(t, err)
	_, err = env.workouts.Log(ctx, 2, WorkoutInput{Exercise: "crunches", Duration: 5})
	require.NoError(t, err)

	top, err := env.ranking.GetTopUsers(ctx, "KR", 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(1), top[0].ID)

	daily, err := env.ranking.GetDailyEarners(ctx, 10)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, int64(1), daily[0].UserID)

	other, err := env.ranking.GetTopUsers(ctx, "JP", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

type stubSender struct{ delivered bool }

func (s stubSender) Name() string { return "stub" }

func (s stubSender) Send(context.Context, *model.User, []notify.Event) (bool, error) {
	return s.delivered, nil
}

func TestRewards_OnlyDeliveredUnlocksAreMarkedSeen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)
	env.newUser(t, 2)

	env.rewards.notifier = notify.NewNotifier(stubSender{delivered: false})
	res, err := env.workouts.Log(ctx, 1, WorkoutInput{Exercise: "push-ups", Duration: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Unlocked)

	pending, err := env.rewards.Notifications(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, unlockedNames(res.Unlocked), unlockedNames(pending), "undelivered unlocks stay pending")

	env.rewards.notifier = notify.NewNotifier(stubSender{delivered: true})
	_, err = env.workouts.Log(ctx, 2, WorkoutInput{Exercise: "push-ups", Duration: 10})
	require.NoError(t, err)

	pending, err = env.rewards.Notifications(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
