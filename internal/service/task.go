package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"solo-rising/internal/model"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/repository"
	"solo-rising/internal/scoring"
	"solo-rising/internal/streak"
)

// TaskInput schedules a workout for a day. A zero ScheduledFor means today.
type TaskInput struct {
	Exercise     string    `json:"exercise_type"`
	Duration     int       `json:"duration"`
	Reps         int       `json:"reps"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// TaskService handles scheduled tasks. Completing one records a workout and
// counts against the daily task limit.
type TaskService struct {
	pool       *pgxpool.Pool
	userRepo   *repository.UserRepository
	taskRepo   *repository.TaskRepository
	workouts   *WorkoutService
	dailyLimit int
}

// NewTaskService creates a new TaskService instance.
func NewTaskService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	taskRepo *repository.TaskRepository,
	workouts *WorkoutService,
	dailyLimit int,
) *TaskService {
	return &TaskService{
		pool:       pool,
		userRepo:   userRepo,
		taskRepo:   taskRepo,
		workouts:   workouts,
		dailyLimit: dailyLimit,
	}
}

func (s *TaskService) today() time.Time {
	return streak.StartOfDay(s.workouts.now(), s.workouts.loc)
}

// Create schedules a task. The exercise name is resolved to its catalog key.
func (s *TaskService) Create(ctx context.Context, userID int64, in TaskInput) (*model.ScheduledTask, error) {
	if err := scoring.Validate(in.Exercise, in.Duration, in.Reps); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkout, err)
	}

	day := in.ScheduledFor
	if day.IsZero() {
		day = s.today()
	} else {
		day = streak.StartOfDay(day, s.workouts.loc)
	}
	if day.Before(s.today()) {
		return nil, fmt.Errorf("%w: task scheduled in the past", ErrInvalidWorkout)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, ledgerErr("create task", err)
	}
	if !exists {
		return nil, repository.ErrUserNotFound
	}

	task, err := s.taskRepo.Create(ctx, &model.ScheduledTask{
		UserID:       userID,
		ExerciseType: s.workouts.registry.Resolve(in.Exercise).Key,
		Duration:     in.Duration,
		Reps:         in.Reps,
		ScheduledFor: day,
	})
	return task, ledgerErr("create task", err)
}

// List returns the user's tasks from today on.
func (s *TaskService) List(ctx context.Context, userID int64, limit int) ([]*model.ScheduledTask, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID, s.today(), limit)
	if err != nil {
		return nil, ledgerErr("list tasks", err)
	}
	if tasks == nil {
		tasks = []*model.ScheduledTask{}
	}
	return tasks, nil
}

// CompletedToday returns how many tasks the user completed today.
func (s *TaskService) CompletedToday(ctx context.Context, userID int64) (int, error) {
	n, err := s.taskRepo.GetDailyCompletionCount(ctx, userID, s.today())
	return n, ledgerErr("count completions", err)
}

// Complete marks a task done and records its workout. At most dailyLimit
// completions earn points per calendar day; over the limit nothing changes
// and ErrDailyTaskLimit is returned.
func (s *TaskService) Complete(ctx context.Context, userID, taskID int64) (*WorkoutResult, error) {
	var result *WorkoutResult
	err := s.workouts.userLock.WithLockContext(ctx, userID, s.workouts.lockTimeout, func() error {
		err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			user, err := s.userRepo.WithTx(tx).GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}

			tasks := s.taskRepo.WithTx(tx)
			task, err := tasks.GetForUpdate(ctx, taskID, userID)
			if err != nil {
				return err
			}
			if task.CompletedAt != nil {
				return repository.ErrTaskCompleted
			}

			now := s.workouts.now()
			ok, err := tasks.IncrementDailyCompletion(ctx, userID, now.In(s.workouts.loc), s.dailyLimit)
			if err != nil {
				return err
			}
			if !ok {
				return ErrDailyTaskLimit
			}
			if err := tasks.MarkCompleted(ctx, task.ID, now); err != nil {
				return err
			}

			score, err := s.workouts.registry.Score(task.ExerciseType, task.Duration, task.Reps)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidWorkout, err)
			}
			in := WorkoutInput{Exercise: task.ExerciseType, Duration: task.Duration, Reps: task.Reps}
			result, err = s.workouts.recordInTx(ctx, tx, user, score, in, model.SourceTask)
			return err
		})
		if err != nil {
			return err
		}
		s.workouts.cache.Set(ctx, result.User)
		return nil
	})
	if err != nil {
		return nil, ledgerErr("complete task", err)
	}

	s.workouts.afterCommit(ctx, result)
	return result, nil
}
