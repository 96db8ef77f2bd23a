package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

// WorkoutRepository handles the append-only workout log.
type WorkoutRepository struct {
	db DBTX
}

// NewWorkoutRepository creates a new WorkoutRepository instance.
func NewWorkoutRepository(db DBTX) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *WorkoutRepository) WithTx(tx pgx.Tx) *WorkoutRepository {
	return &WorkoutRepository{db: tx}
}

// Create appends a workout. CreatedAt is taken from w.
func (r *WorkoutRepository) Create(ctx context.Context, w *model.Workout) (*model.Workout, error) {
	const query = `
		INSERT INTO workouts (user_id, exercise_type, duration, reps, points, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, exercise_type, duration, reps, points, source, created_at
	`

	var out model.Workout
	err := r.db.QueryRow(ctx, query, w.UserID, w.ExerciseType, w.Duration, w.Reps, w.Points, w.Source, w.CreatedAt).Scan(
		&out.ID,
		&out.UserID,
		&out.ExerciseType,
		&out.Duration,
		&out.Reps,
		&out.Points,
		&out.Source,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}
	return &out, nil
}

// ListByUser returns the most recent workouts of a user, newest first.
func (r *WorkoutRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Workout, error) {
	const query = `
		SELECT id, user_id, exercise_type, duration, reps, points, source, created_at
		FROM workouts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*model.Workout
	for rows.Next() {
		var w model.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.ExerciseType, &w.Duration, &w.Reps, &w.Points, &w.Source, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workouts: %w", err)
	}
	return workouts, nil
}

// CountByUser returns the number of workouts a user has logged.
func (r *WorkoutRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workouts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return n, nil
}
