package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/cache"
	"solo-rising/internal/repository"
	"solo-rising/internal/streak"
)

// SweepResult summarizes one streak sweep.
type SweepResult struct {
	Processed int           `json:"processed"`
	Reset     int           `json:"reset"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"-"`
}

// SweepService zeroes the streaks of users who skipped a whole day. It never
// applies the miss penalty; that happens on the next workout.
type SweepService struct {
	userRepo *repository.UserRepository
	cache    cache.LedgerCache
	loc      *time.Location
	pageSize int
}

// NewSweepService creates a new SweepService instance.
func NewSweepService(userRepo *repository.UserRepository, ledgerCache cache.LedgerCache, loc *time.Location, pageSize int) *SweepService {
	if ledgerCache == nil {
		ledgerCache = cache.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &SweepService{userRepo: userRepo, cache: ledgerCache, loc: loc, pageSize: pageSize}
}

// Run sweeps all users as of now. A failure on one user is logged and
// counted and the sweep moves on; only a failure to list users aborts it.
// Running it twice on the same day resets nobody the second time.
func (s *SweepService) Run(ctx context.Context, now time.Time) (*SweepResult, error) {
	started := time.Now()
	cutoff := streak.SweepCutoff(now, s.loc)
	result := &SweepResult{}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.userRepo.ListPage(ctx, afterID, s.pageSize)
		if err != nil {
			return result, ledgerErr("sweep list users", err)
		}
		if len(page) == 0 {
			break
		}

		for _, user := range page {
			afterID = user.ID
			result.Processed++
			if user.Streak == 0 || !streak.IsStale(user.LastWorkoutAt, now, s.loc) {
				continue
			}

			updated, err := s.userRepo.ResetStreak(ctx, user.ID, cutoff)
			if err != nil {
				result.Failed++
				log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to reset streak")
				continue
			}
			if updated != nil {
				result.Reset++
				s.cache.Set(ctx, updated)
			}
		}

		if len(page) < s.pageSize {
			break
		}
	}

	result.Duration = time.Since(started)
	log.Info().
		Int("processed", result.Processed).
		Int("reset", result.Reset).
		Int("failed", result.Failed).
		Dur("took", result.Duration).
		Msg("Streak sweep finished")
	return result, nil
}
