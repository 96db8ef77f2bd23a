// Package model defines the data models for the Solo Rising ledger.
package model

import "time"

// User is the per-user ledger row. Points and coins never go negative.
// Version grows by one on every update of the row.
type User struct {
	ID             int64      `db:"id" json:"id"`
	WarriorName    string     `db:"warrior_name" json:"warrior_name"`
	CharacterType  *string    `db:"character_type" json:"character_type"`
	Points         int64      `db:"points" json:"points"`
	Coins          int64      `db:"coins" json:"coins"`
	Streak         int        `db:"streak" json:"streak"`
	LongestStreak  int        `db:"longest_streak" json:"longest_streak"`
	LastWorkoutAt  *time.Time `db:"last_workout_at" json:"last_workout_date"`
	Country        string     `db:"country" json:"country"`
	TelegramChatID *int64     `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	Version        int64      `db:"version" json:"version"`
}

// Workout is an append-only record of one logged exercise.
type Workout struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ExerciseType string    `db:"exercise_type" json:"exercise_type"`
	Duration     int       `db:"duration" json:"duration"`
	Reps         int       `db:"reps" json:"reps"`
	Points       int64     `db:"points" json:"points"`
	Source       string    `db:"source" json:"source"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Workout sources.
const (
	SourceManual = "manual"
	SourceTask   = "task"
)

// LedgerEntry records one points/coins mutation.
type LedgerEntry struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Points      int64     `db:"points" json:"points"`
	Coins       int64     `db:"coins" json:"coins"`
	Type        string    `db:"type" json:"type"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Ledger entry types.
const (
	EntryWorkout       = "workout"
	EntryMissPenalty   = "miss_penalty"
	EntryRewardBonus   = "reward_bonus"
	EntryStorePurchase = "store_purchase"
	EntryTask          = "task"
)

// EarningEntryTypes are the entry types counted by the daily leaderboard.
func EarningEntryTypes() []string {
	return []string{EntryWorkout, EntryTask, EntryRewardBonus}
}

// DailyRank is a user's net points earned on one day.
type DailyRank struct {
	UserID      int64  `db:"user_id" json:"user_id"`
	WarriorName string `db:"warrior_name" json:"warrior_name"`
	Points      int64  `db:"points" json:"points"`
}

// Reward is one entry of the global achievement/badge catalog.
type Reward struct {
	ID               int64  `db:"id" json:"id"`
	Category         string `db:"category" json:"category"`
	Name             string `db:"name" json:"name"`
	Description      string `db:"description" json:"description"`
	Icon             string `db:"icon" json:"icon"`
	Requirement      string `db:"requirement" json:"requirement"`
	RequirementValue int64  `db:"requirement_value" json:"points_required"`
}

// RewardUnlock marks a reward as earned by a user.
type RewardUnlock struct {
	UserID      int64      `db:"user_id" json:"user_id"`
	RewardID    int64      `db:"reward_id" json:"reward_id"`
	BonusPoints int64      `db:"bonus_points" json:"bonus_points"`
	UnlockedAt  time.Time  `db:"unlocked_at" json:"unlocked_at"`
	NotifiedAt  *time.Time `db:"notified_at" json:"notified_at,omitempty"`
}

// UnlockedReward is a catalog entry joined with the caller's unlock state.
type UnlockedReward struct {
	Reward
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	BonusPoints int64      `json:"bonus_points"`
}

// ScheduledTask is a planned workout that awards points when completed.
type ScheduledTask struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	ExerciseType string     `db:"exercise_type" json:"exercise_type"`
	Duration     int        `db:"duration" json:"duration"`
	Reps         int        `db:"reps" json:"reps"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// InventoryItem is a stack of purchased store items.
type InventoryItem struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	ItemType  string    `db:"item_type" json:"item_type"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
