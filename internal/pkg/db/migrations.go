package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{"users table", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			warrior_name VARCHAR(255) NOT NULL DEFAULT '',
			character_type VARCHAR(32),
			points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
			coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
			streak INT NOT NULL DEFAULT 0 CHECK (streak >= 0),
			longest_streak INT NOT NULL DEFAULT 0,
			last_workout_at TIMESTAMPTZ,
			country VARCHAR(64) NOT NULL DEFAULT '',
			telegram_chat_id BIGINT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version BIGINT NOT NULL DEFAULT 0
		);
		ALTER TABLE users ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0;
		CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC);
		CREATE INDEX IF NOT EXISTS idx_users_country_points ON users(country, points DESC);
	`},
	{"workouts table", `
		CREATE TABLE IF NOT EXISTS workouts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			exercise_type VARCHAR(64) NOT NULL,
			duration INT NOT NULL CHECK (duration > 0),
			reps INT NOT NULL DEFAULT 0 CHECK (reps >= 0),
			points BIGINT NOT NULL CHECK (points >= 0),
			source VARCHAR(16) NOT NULL DEFAULT 'manual',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_workouts_user_time ON workouts(user_id, created_at DESC);
	`},
	{"ledger_entries table", `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			points BIGINT NOT NULL DEFAULT 0,
			coins BIGINT NOT NULL DEFAULT 0,
			type VARCHAR(32) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_user_time ON ledger_entries(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_ledger_type_time ON ledger_entries(type, created_at DESC);
	`},
	{"rewards tables", `
		CREATE TABLE IF NOT EXISTS rewards (
			id BIGSERIAL PRIMARY KEY,
			category VARCHAR(16) NOT NULL,
			name VARCHAR(128) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			icon VARCHAR(32) NOT NULL DEFAULT '',
			requirement VARCHAR(16) NOT NULL,
			requirement_value BIGINT NOT NULL CHECK (requirement_value >= 0)
		);
		CREATE TABLE IF NOT EXISTS reward_unlocks (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reward_id BIGINT NOT NULL REFERENCES rewards(id) ON DELETE CASCADE,
			bonus_points BIGINT NOT NULL DEFAULT 0,
			unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			notified_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, reward_id)
		);
		CREATE INDEX IF NOT EXISTS idx_reward_unlocks_pending ON reward_unlocks(user_id) WHERE notified_at IS NULL;
	`},
	{"scheduled_tasks tables", `
		CREATE TABLE IF NOT EXISTS scheduled_tasks (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			exercise_type VARCHAR(64) NOT NULL,
			duration INT NOT NULL CHECK (duration > 0),
			reps INT NOT NULL DEFAULT 0 CHECK (reps >= 0),
			scheduled_for DATE NOT NULL,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_user_day ON scheduled_tasks(user_id, scheduled_for);
		CREATE TABLE IF NOT EXISTS daily_task_completions (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			completion_date DATE NOT NULL,
			completion_count INT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, completion_date)
		);
	`},
	{"user_items table", `
		CREATE TABLE IF NOT EXISTS user_items (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			item_type VARCHAR(50) NOT NULL,
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, item_type)
		);
	`},
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
