package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

// LedgerRepository records every points/coins mutation and aggregates them
// for the daily leaderboard.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *LedgerRepository) WithTx(tx pgx.Tx) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// Create records a ledger entry.
func (r *LedgerRepository) Create(ctx context.Context, userID, points, coins int64, entryType string, description *string) (*model.LedgerEntry, error) {
	return r.CreateWithTime(ctx, userID, points, coins, entryType, description, time.Now())
}

// CreateWithTime records a ledger entry with a specific timestamp.
func (r *LedgerRepository) CreateWithTime(ctx context.Context, userID, points, coins int64, entryType string, description *string, createdAt time.Time) (*model.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (user_id, points, coins, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, points, coins, type, description, created_at
	`

	var e model.LedgerEntry
	err := r.db.QueryRow(ctx, query, userID, points, coins, entryType, description, createdAt).Scan(
		&e.ID,
		&e.UserID,
		&e.Points,
		&e.Coins,
		&e.Type,
		&e.Description,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return &e, nil
}

// GetByUserID retrieves a user's ledger entries, newest first.
func (r *LedgerRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	const query = `
		SELECT id, user_id, points, coins, type, description, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Points, &e.Coins, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// GetDailyEarners returns the users who earned the most points on the day
// starting at dayStart. Only earning entry types are counted.
func (r *LedgerRepository) GetDailyEarners(ctx context.Context, dayStart time.Time, limit int) ([]*model.DailyRank, error) {
	const query = `
		SELECT e.user_id, u.warrior_name, COALESCE(SUM(e.points), 0) AS earned
		FROM ledger_entries e
		JOIN users u ON e.user_id = u.id
		WHERE e.type = ANY($1)
		  AND e.created_at >= $2
		  AND e.created_at < $3
		GROUP BY e.user_id, u.warrior_name
		HAVING SUM(e.points) > 0
		ORDER BY earned DESC, e.user_id ASC
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, model.EarningEntryTypes(), dayStart, dayStart.AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily earners: %w", err)
	}
	defer rows.Close()

	var ranks []*model.DailyRank
	for rows.Next() {
		var rank model.DailyRank
		if err := rows.Scan(&rank.UserID, &rank.WarriorName, &rank.Points); err != nil {
			return nil, fmt.Errorf("failed to scan daily rank: %w", err)
		}
		ranks = append(ranks, &rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily ranks: %w", err)
	}
	return ranks, nil
}

// GetUserDailyPoints returns the net points a user earned on a day.
func (r *LedgerRepository) GetUserDailyPoints(ctx context.Context, userID int64, dayStart time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(points), 0)
		FROM ledger_entries
		WHERE user_id = $1
		  AND created_at >= $2
		  AND created_at < $3
	`

	var points int64
	if err := r.db.QueryRow(ctx, query, userID, dayStart, dayStart.AddDate(0, 0, 1)).Scan(&points); err != nil {
		return 0, fmt.Errorf("failed to get user daily points: %w", err)
	}
	return points, nil
}
