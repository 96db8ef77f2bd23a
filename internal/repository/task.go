package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

const taskColumns = `id, user_id, exercise_type, duration, reps, scheduled_for, completed_at, created_at`

func scanTask(row pgx.Row) (*model.ScheduledTask, error) {
	var t model.ScheduledTask
	if err := row.Scan(&t.ID, &t.UserID, &t.ExerciseType, &t.Duration, &t.Reps, &t.ScheduledFor, &t.CompletedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// dateOnly strips the clock so DATE columns get the calendar day of t.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TaskRepository handles scheduled tasks and the daily completion counter.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *TaskRepository) WithTx(tx pgx.Tx) *TaskRepository {
	return &TaskRepository{db: tx}
}

// Create schedules a task for the calendar day of scheduledFor.
func (r *TaskRepository) Create(ctx context.Context, t *model.ScheduledTask) (*model.ScheduledTask, error) {
	query := `
		INSERT INTO scheduled_tasks (user_id, exercise_type, duration, reps, scheduled_for, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRow(ctx, query, t.UserID, t.ExerciseType, t.Duration, t.Reps, dateOnly(t.ScheduledFor)))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetForUpdate loads a user's task and locks it for the transaction.
func (r *TaskRepository) GetForUpdate(ctx context.Context, id, userID int64) (*model.ScheduledTask, error) {
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`

	task, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// MarkCompleted sets completed_at once. Returns ErrTaskCompleted if it was
// already set.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE scheduled_tasks SET completed_at = $2 WHERE id = $1 AND completed_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTaskCompleted
	}
	return nil
}

// ListByUser returns a user's tasks scheduled on or after from.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64, from time.Time, limit int) ([]*model.ScheduledTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE user_id = $1 AND scheduled_for >= $2
		ORDER BY scheduled_for, id
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, dateOnly(from), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// IncrementDailyCompletion bumps the user's completion counter for day
// unless it already reached limit. It reports whether the bump happened.
func (r *TaskRepository) IncrementDailyCompletion(ctx context.Context, userID int64, day time.Time, limit int) (bool, error) {
	const query = `
		INSERT INTO daily_task_completions (user_id, completion_date, completion_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, completion_date)
		DO UPDATE SET completion_count = daily_task_completions.completion_count + 1
		WHERE daily_task_completions.completion_count < $3
		RETURNING completion_count
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID, dateOnly(day), limit).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to increment daily completions: %w", err)
	}
	return true, nil
}

// GetDailyCompletionCount returns how many tasks a user completed on day.
func (r *TaskRepository) GetDailyCompletionCount(ctx context.Context, userID int64, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT completion_count FROM daily_task_completions WHERE user_id = $1 AND completion_date = $2`,
		userID, dateOnly(day)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get daily completions: %w", err)
	}
	return count, nil
}
