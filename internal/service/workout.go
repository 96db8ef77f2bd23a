package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/cache"
	"solo-rising/internal/config"
	"solo-rising/internal/model"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/scoring"
	"solo-rising/internal/streak"
)

// WorkoutInput is a workout as submitted by the user.
type WorkoutInput struct {
	Exercise string `json:"exercise_type"`
	Duration int    `json:"duration"`
	Reps     int    `json:"reps"`
}

// WorkoutResult is everything one logged workout changed.
type WorkoutResult struct {
	Workout     *model.Workout `json:"workout"`
	Score       scoring.Score  `json:"score"`
	CoinsEarned int64          `json:"coins_earned"`
	Penalty     int64          `json:"penalty"`
	MissedDays  int            `json:"missed_days"`
	User        *model.User    `json:"user"`
	Unlocked    []Unlock       `json:"unlocked"`
}

// WorkoutService records workouts and applies their effect on the ledger.
type WorkoutService struct {
	pool        *pgxpool.Pool
	userRepo    *repository.UserRepository
	workoutRepo *repository.WorkoutRepository
	ledgerRepo  *repository.LedgerRepository
	registry    *scoring.Registry
	rewards     *RewardService
	userLock    *lock.UserLock
	cache       cache.LedgerCache

	loc         *time.Location
	missPenalty int64
	lockTimeout time.Duration
	now         func() time.Time
}

// NewWorkoutService creates a new WorkoutService instance.
func NewWorkoutService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	workoutRepo *repository.WorkoutRepository,
	ledgerRepo *repository.LedgerRepository,
	registry *scoring.Registry,
	rewards *RewardService,
	userLock *lock.UserLock,
	ledgerCache cache.LedgerCache,
	cfg config.LedgerConfig,
) *WorkoutService {
	if ledgerCache == nil {
		ledgerCache = cache.Nop{}
	}
	return &WorkoutService{
		pool:        pool,
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		ledgerRepo:  ledgerRepo,
		registry:    registry,
		rewards:     rewards,
		userLock:    userLock,
		cache:       ledgerCache,
		loc:         cfg.Location(),
		missPenalty: cfg.MissPenalty,
		lockTimeout: cfg.LockTimeout,
		now:         time.Now,
	}
}

// Exercises returns the exercise catalog.
func (s *WorkoutService) Exercises() []scoring.Exercise {
	return s.registry.List()
}

// Recent returns the user's latest workouts.
func (s *WorkoutService) Recent(ctx context.Context, userID int64, limit int) ([]*model.Workout, error) {
	workouts, err := s.workoutRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, ledgerErr("list workouts", err)
	}
	if workouts == nil {
		workouts = []*model.Workout{}
	}
	return workouts, nil
}

// Log validates and records a free-form workout. The streak, the miss
// penalty, the award and any unlocks are committed together or not at all.
func (s *WorkoutService) Log(ctx context.Context, userID int64, in WorkoutInput) (*WorkoutResult, error) {
	score, err := s.registry.Score(in.Exercise, in.Duration, in.Reps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkout, err)
	}

	var result *WorkoutResult
	err = s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			user, err := s.userRepo.WithTx(tx).GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			result, err = s.recordInTx(ctx, tx, user, score, in, model.SourceManual)
			return err
		})
		if err != nil {
			return err
		}
		s.cache.Set(ctx, result.User)
		return nil
	})
	if err != nil {
		return nil, ledgerErr("log workout", err)
	}

	s.afterCommit(ctx, result)
	return result, nil
}

// recordInTx applies one scored workout for a user whose row is locked by
// tx.
func (s *WorkoutService) recordInTx(
	ctx context.Context,
	tx pgx.Tx,
	user *model.User,
	score scoring.Score,
	in WorkoutInput,
	source string,
) (*WorkoutResult, error) {
	users := s.userRepo.WithTx(tx)
	ledger := s.ledgerRepo.WithTx(tx)
	now := s.now()

	st := streak.Evaluate(user.LastWorkoutAt, user.Streak, now, s.loc)
	result := &WorkoutResult{Score: score, MissedDays: st.MissedDays}

	var err error
	if st.Penalized && s.missPenalty > 0 {
		before := user.Points
		if user, err = users.ApplyPenalty(ctx, user.ID, s.missPenalty); err != nil {
			return nil, err
		}
		result.Penalty = before - user.Points
		desc := fmt.Sprintf("Missed %d day(s)", st.MissedDays)
		if _, err := ledger.CreateWithTime(ctx, user.ID, -result.Penalty, 0, model.EntryMissPenalty, &desc, now); err != nil {
			return nil, err
		}
	}

	result.Workout, err = s.workoutRepo.WithTx(tx).Create(ctx, &model.Workout{
		UserID:       user.ID,
		ExerciseType: score.Exercise,
		Duration:     in.Duration,
		Reps:         in.Reps,
		Points:       score.Total,
		Source:       source,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	result.CoinsEarned = scoring.Coins(score.Total)
	if user, err = users.ApplyWorkout(ctx, user.ID, score.Total, result.CoinsEarned, st.Streak, now); err != nil {
		return nil, err
	}

	entryType := model.EntryWorkout
	if source == model.SourceTask {
		entryType = model.EntryTask
	}
	desc := score.Exercise
	if _, err := ledger.CreateWithTime(ctx, user.ID, score.Total, result.CoinsEarned, entryType, &desc, now); err != nil {
		return nil, err
	}

	if user, result.Unlocked, err = s.rewards.unlockInTx(ctx, tx, user); err != nil {
		return nil, err
	}
	if result.Unlocked == nil {
		result.Unlocked = []Unlock{}
	}
	result.User = user

	log.Info().
		Int64("user_id", user.ID).
		Str("exercise", score.Exercise).
		Str("source", source).
		Int64("points", score.Total).
		Int("streak", user.Streak).
		Int64("penalty", result.Penalty).
		Msg("Workout recorded")

	return result, nil
}

// afterCommit runs once the user lock is released. The cache is refreshed
// under the lock, so only notifications are left.
func (s *WorkoutService) afterCommit(ctx context.Context, result *WorkoutResult) {
	s.rewards.publish(ctx, result.User, result.Unlocked)
}
