package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/cache"
	"solo-rising/internal/model"
	"solo-rising/internal/notify"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/reward"
)

// Unlock is a reward granted by one unlocker run.
type Unlock = repository.PendingUnlock

// RewardService unlocks achievements and badges and surfaces them once.
type RewardService struct {
	pool        *pgxpool.Pool
	userRepo    *repository.UserRepository
	workoutRepo *repository.WorkoutRepository
	ledgerRepo  *repository.LedgerRepository
	rewardRepo  *repository.RewardRepository
	userLock    *lock.UserLock
	cache       cache.LedgerCache
	notifier    *notify.Notifier
	lockTimeout time.Duration
	now         func() time.Time
}

// NewRewardService creates a new RewardService instance.
func NewRewardService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	workoutRepo *repository.WorkoutRepository,
	ledgerRepo *repository.LedgerRepository,
	rewardRepo *repository.RewardRepository,
	userLock *lock.UserLock,
	ledgerCache cache.LedgerCache,
	notifier *notify.Notifier,
	lockTimeout time.Duration,
) *RewardService {
	if ledgerCache == nil {
		ledgerCache = cache.Nop{}
	}
	return &RewardService{
		pool:        pool,
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		ledgerRepo:  ledgerRepo,
		rewardRepo:  rewardRepo,
		userLock:    userLock,
		cache:       ledgerCache,
		notifier:    notifier,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// Seed validates and inserts the catalog. Existing entries are kept.
func (s *RewardService) Seed(ctx context.Context, catalog []model.Reward) error {
	for _, r := range catalog {
		if err := reward.Validate(r); err != nil {
			return err
		}
	}
	return s.rewardRepo.Seed(ctx, catalog)
}

// Catalog returns every reward.
func (s *RewardService) Catalog(ctx context.Context) ([]model.Reward, error) {
	catalog, err := s.rewardRepo.ListCatalog(ctx)
	return catalog, ledgerErr("list rewards", err)
}

// ListForUser returns the catalog with the user's unlock state.
func (s *RewardService) ListForUser(ctx context.Context, userID int64) ([]model.UnlockedReward, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, ledgerErr("list user rewards", err)
	}
	list, err := s.rewardRepo.ListForUser(ctx, userID)
	return list, ledgerErr("list user rewards", err)
}

// Check runs the unlocker for a user outside of a workout. It is safe to
// call any number of times.
func (s *RewardService) Check(ctx context.Context, userID int64) ([]Unlock, error) {
	var (
		user     *model.User
		unlocked []Unlock
	)
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			u, err := s.userRepo.WithTx(tx).GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			user, unlocked, err = s.unlockInTx(ctx, tx, u)
			return err
		})
		if err != nil {
			return err
		}
		s.cache.Set(ctx, user)
		return nil
	})
	if err != nil {
		return nil, ledgerErr("check rewards", err)
	}

	s.publish(ctx, user, unlocked)
	return unlocked, nil
}

// Notifications returns the unlocks the user has not seen yet and marks
// them seen, so each one is returned exactly once.
func (s *RewardService) Notifications(ctx context.Context, userID int64) ([]Unlock, error) {
	pending, err := s.rewardRepo.TakePending(ctx, userID)
	if err != nil {
		return nil, ledgerErr("take notifications", err)
	}
	if pending == nil {
		pending = []Unlock{}
	}
	return pending, nil
}

// unlockInTx grants every reward the user qualifies for. Point bonuses can
// qualify the user for further rewards, so reward.Cascade plans all passes
// before anything is written. The caller must hold the user row lock.
func (s *RewardService) unlockInTx(ctx context.Context, tx pgx.Tx, user *model.User) (*model.User, []Unlock, error) {
	rewards := s.rewardRepo.WithTx(tx)
	users := s.userRepo.WithTx(tx)
	ledger := s.ledgerRepo.WithTx(tx)

	catalog, err := rewards.ListCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	have, err := rewards.UnlockedIDs(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	workouts, err := s.workoutRepo.WithTx(tx).CountByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	progress := reward.Progress{Points: user.Points, Streak: user.Streak, Workouts: workouts}
	plan, _ := reward.Cascade(catalog, have, progress)
	if len(plan) == 0 {
		return user, nil, nil
	}

	now := s.now()
	var granted []Unlock
	for _, r := range plan {
		bonus := reward.Bonus(r)
		inserted, err := rewards.Unlock(ctx, user.ID, r.ID, bonus)
		if err != nil {
			return nil, nil, err
		}
		if !inserted {
			continue
		}

		if bonus > 0 {
			if user, err = users.AddPoints(ctx, user.ID, bonus); err != nil {
				return nil, nil, err
			}
			desc := "Unlocked " + r.Name
			if _, err := ledger.CreateWithTime(ctx, user.ID, bonus, 0, model.EntryRewardBonus, &desc, now); err != nil {
				return nil, nil, err
			}
		}
		granted = append(granted, Unlock{Reward: r, BonusPoints: bonus, UnlockedAt: now})
	}

	if len(granted) > 0 {
		log.Info().
			Int64("user_id", user.ID).
			Int("unlocked", len(granted)).
			Int64("points", user.Points).
			Msg("Rewards unlocked")
	}
	return user, granted, nil
}

// publish pushes fresh unlocks after commit. Unlocks that reached the user
// live are marked notified; the rest stay pending for Notifications.
func (s *RewardService) publish(ctx context.Context, user *model.User, unlocked []Unlock) {
	if len(unlocked) == 0 || s.notifier == nil {
		return
	}

	events := make([]notify.Event, 0, len(unlocked))
	ids := make([]int64, 0, len(unlocked))
	for _, u := range unlocked {
		events = append(events, notify.Event{
			Type:        notify.EventRewardUnlocked,
			UserID:      user.ID,
			Reward:      u.Reward,
			BonusPoints: u.BonusPoints,
			UnlockedAt:  u.UnlockedAt,
		})
		ids = append(ids, u.Reward.ID)
	}

	if !s.notifier.Notify(ctx, user, events) {
		return
	}
	if err := s.rewardRepo.MarkNotified(ctx, user.ID, ids); err != nil {
		log.Warn().Err(fmt.Errorf("failed to mark notified: %w", err)).Int64("user_id", user.ID).Msg("Unlocks will be delivered again")
	}
}
