package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

const userColumns = `id, warrior_name, character_type, points, coins, streak, longest_streak,
	last_workout_at, country, telegram_chat_id, created_at, updated_at, version`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.WarriorName,
		&u.CharacterType,
		&u.Points,
		&u.Coins,
		&u.Streak,
		&u.LongestStreak,
		&u.LastWorkoutAt,
		&u.Country,
		&u.TelegramChatID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Version,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRepository handles ledger row persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// Create creates a new ledger row with zero points, coins and streak.
func (r *UserRepository) Create(ctx context.Context, id int64, warriorName, country string) (*model.User, error) {
	query := `
		INSERT INTO users (id, warrior_name, country, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, warriorName, country))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetForUpdate reads a user and locks the row until the transaction ends.
// Must be called on a repository bound to a transaction.
func (r *UserRepository) GetForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

// GetByTelegramChat retrieves the user linked to a Telegram chat.
func (r *UserRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID)
}

func (r *UserRepository) get(ctx context.Context, query string, arg int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user, creating one if it doesn't exist.
// The boolean reports whether the row was created by this call.
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, warriorName, country string) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, id)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, id, warriorName, country)
	if err != nil {
		// Another request may have created the row first.
		user, err = r.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	return user, true, nil
}

// UpdateProfile sets the display fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, warriorName, country string) (*model.User, error) {
	query := `
		UPDATE users
		SET warrior_name = $2, country = $3, updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns
	return r.update(ctx, "update profile", query, id, warriorName, country)
}

// ApplyWorkout adds points and coins atomically and records the new streak
// and workout time.
func (r *UserRepository) ApplyWorkout(ctx context.Context, id int64, points, coins int64, streak int, at time.Time) (*model.User, error) {
	query := `
		UPDATE users
		SET points = points + $2,
			coins = coins + $3,
			streak = $4,
			longest_streak = GREATEST(longest_streak, $4),
			last_workout_at = $5,
			updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns
	return r.update(ctx, "apply workout", query, id, points, coins, streak, at)
}

// ApplyPenalty subtracts penalty points, never going below zero.
func (r *UserRepository) ApplyPenalty(ctx context.Context, id int64, penalty int64) (*model.User, error) {
	query := `
		UPDATE users
		SET points = GREATEST(points - $2, 0), updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns
	return r.update(ctx, "apply penalty", query, id, penalty)
}

// AddPoints adds points atomically.
func (r *UserRepository) AddPoints(ctx context.Context, id int64, points int64) (*model.User, error) {
	query := `
		UPDATE users
		SET points = points + $2, updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns
	return r.update(ctx, "add points", query, id, points)
}

// SpendCoins deducts coins only when the balance covers the price.
// Returns ErrInsufficientCoins otherwise.
func (r *UserRepository) SpendCoins(ctx context.Context, id int64, price int64) (*model.User, error) {
	query := `
		UPDATE users
		SET coins = coins - $2, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND coins >= $2
		RETURNING ` + userColumns

	user, err := r.update(ctx, "spend coins", query, id, price)
	if errors.Is(err, ErrUserNotFound) {
		if exists, existsErr := r.Exists(ctx, id); existsErr == nil && exists {
			return nil, ErrInsufficientCoins
		}
	}
	return user, err
}

// SetCharacter sets the character once. Returns ErrCharacterAlreadySet when
// a character was chosen before.
func (r *UserRepository) SetCharacter(ctx context.Context, id int64, character string) (*model.User, error) {
	query := `
		UPDATE users
		SET character_type = $2, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND character_type IS NULL
		RETURNING ` + userColumns

	user, err := r.update(ctx, "set character", query, id, character)
	if errors.Is(err, ErrUserNotFound) {
		if exists, existsErr := r.Exists(ctx, id); existsErr == nil && exists {
			return nil, ErrCharacterAlreadySet
		}
	}
	return user, err
}

// LinkTelegram attaches a Telegram chat to a user, detaching it from any
// other user first. Run it inside a transaction.
func (r *UserRepository) LinkTelegram(ctx context.Context, id int64, chatID int64) (*model.User, error) {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET telegram_chat_id = NULL, updated_at = NOW(), version = version + 1 WHERE telegram_chat_id = $1 AND id <> $2`,
		chatID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to detach telegram chat: %w", err)
	}

	query := `
		UPDATE users
		SET telegram_chat_id = $2, updated_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING ` + userColumns
	return r.update(ctx, "link telegram", query, id, chatID)
}

// ResetStreak zeroes a streak if the last workout is still before cutoff.
// It returns the updated row, or nil when nothing changed.
func (r *UserRepository) ResetStreak(ctx context.Context, id int64, cutoff time.Time) (*model.User, error) {
	query := `
		UPDATE users
		SET streak = 0, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND streak <> 0 AND last_workout_at < $2
		RETURNING ` + userColumns

	user, err := r.update(ctx, "reset streak", query, id, cutoff)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) update(ctx context.Context, op, query string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return user, nil
}

// ListPage returns up to limit users with id > afterID, ordered by id.
func (r *UserRepository) ListPage(ctx context.Context, afterID int64, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id > $1 ORDER BY id LIMIT $2`
	return r.list(ctx, "list users", query, afterID, limit)
}

// GetTopUsers retrieves the top users by points, optionally within a country.
func (r *UserRepository) GetTopUsers(ctx context.Context, country string, limit int) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR country = $1)
		ORDER BY points DESC, id ASC
		LIMIT $2`
	return r.list(ctx, "get top users", query, country, limit)
}

func (r *UserRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Exists checks if a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
