package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

// PendingUnlock is an unlock that has not been shown to the user yet.
type PendingUnlock struct {
	Reward      model.Reward `json:"reward"`
	BonusPoints int64        `json:"bonus_points"`
	UnlockedAt  time.Time    `json:"unlocked_at"`
}

// RewardRepository handles the reward catalog and per-user unlocks.
type RewardRepository struct {
	db DBTX
}

// NewRewardRepository creates a new RewardRepository instance.
func NewRewardRepository(db DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *RewardRepository) WithTx(tx pgx.Tx) *RewardRepository {
	return &RewardRepository{db: tx}
}

// Seed inserts catalog entries that do not exist yet, matched by name.
func (r *RewardRepository) Seed(ctx context.Context, rewards []model.Reward) error {
	const query = `
		INSERT INTO rewards (category, name, description, icon, requirement, requirement_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO NOTHING
	`
	for _, rw := range rewards {
		if _, err := r.db.Exec(ctx, query, rw.Category, rw.Name, rw.Description, rw.Icon, rw.Requirement, rw.RequirementValue); err != nil {
			return fmt.Errorf("failed to seed reward %q: %w", rw.Name, err)
		}
	}
	return nil
}

// ListCatalog returns the whole catalog ordered by requirement and threshold.
func (r *RewardRepository) ListCatalog(ctx context.Context) ([]model.Reward, error) {
	const query = `
		SELECT id, category, name, description, icon, requirement, requirement_value
		FROM rewards
		ORDER BY requirement, requirement_value, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var catalog []model.Reward
	for rows.Next() {
		var rw model.Reward
		if err := rows.Scan(&rw.ID, &rw.Category, &rw.Name, &rw.Description, &rw.Icon, &rw.Requirement, &rw.RequirementValue); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		catalog = append(catalog, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}
	return catalog, nil
}

// UnlockedIDs returns the set of reward IDs a user has unlocked.
func (r *RewardRepository) UnlockedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT reward_id FROM reward_unlocks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocks: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Unlock records an unlock. It reports false when the user already had it.
func (r *RewardRepository) Unlock(ctx context.Context, userID, rewardID, bonus int64) (bool, error) {
	const query = `
		INSERT INTO reward_unlocks (user_id, reward_id, bonus_points, unlocked_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, reward_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, userID, rewardID, bonus)
	if err != nil {
		return false, fmt.Errorf("failed to unlock reward: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListForUser returns the catalog annotated with the user's unlock state.
func (r *RewardRepository) ListForUser(ctx context.Context, userID int64) ([]model.UnlockedReward, error) {
	const query = `
		SELECT rw.id, rw.category, rw.name, rw.description, rw.icon, rw.requirement, rw.requirement_value,
			u.unlocked_at, COALESCE(u.bonus_points, 0)
		FROM rewards rw
		LEFT JOIN reward_unlocks u ON u.reward_id = rw.id AND u.user_id = $1
		ORDER BY rw.requirement, rw.requirement_value, rw.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user rewards: %w", err)
	}
	defer rows.Close()

	var out []model.UnlockedReward
	for rows.Next() {
		var ur model.UnlockedReward
		err := rows.Scan(
			&ur.ID, &ur.Category, &ur.Name, &ur.Description, &ur.Icon, &ur.Requirement, &ur.RequirementValue,
			&ur.UnlockedAt, &ur.BonusPoints,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user reward: %w", err)
		}
		ur.Unlocked = ur.UnlockedAt != nil
		out = append(out, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rewards: %w", err)
	}
	return out, nil
}

// TakePending returns the user's unseen unlocks and marks them seen in the
// same statement, so each unlock is delivered once.
func (r *RewardRepository) TakePending(ctx context.Context, userID int64) ([]PendingUnlock, error) {
	const query = `
		WITH taken AS (
			UPDATE reward_unlocks
			SET notified_at = NOW()
			WHERE user_id = $1 AND notified_at IS NULL
			RETURNING reward_id, bonus_points, unlocked_at
		)
		SELECT rw.id, rw.category, rw.name, rw.description, rw.icon, rw.requirement, rw.requirement_value,
			t.bonus_points, t.unlocked_at
		FROM taken t
		JOIN rewards rw ON rw.id = t.reward_id
		ORDER BY t.unlocked_at, rw.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to take pending unlocks: %w", err)
	}
	defer rows.Close()

	var out []PendingUnlock
	for rows.Next() {
		var p PendingUnlock
		rw := &p.Reward
		if err := rows.Scan(&rw.ID, &rw.Category, &rw.Name, &rw.Description, &rw.Icon, &rw.Requirement, &rw.RequirementValue, &p.BonusPoints, &p.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending unlock: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending unlocks: %w", err)
	}
	return out, nil
}

// MarkNotified marks unlocks as seen after they were pushed live.
func (r *RewardRepository) MarkNotified(ctx context.Context, userID int64, rewardIDs []int64) error {
	if len(rewardIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE reward_unlocks SET notified_at = NOW() WHERE user_id = $1 AND reward_id = ANY($2) AND notified_at IS NULL`,
		userID, rewardIDs)
	if err != nil {
		return fmt.Errorf("failed to mark unlocks notified: %w", err)
	}
	return nil
}
