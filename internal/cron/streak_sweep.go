package cron

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/service"
	"solo-rising/internal/streak"
)

// Sweeper resets stale streaks as of now.
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (*service.SweepResult, error)
}

// StreakSweepJob runs the streak sweep at every local midnight.
type StreakSweepJob struct {
	sweeper Sweeper
	loc     *time.Location
	runNow  bool
	now     func() time.Time
}

// NewStreakSweepJob creates the nightly sweep. With runNow set, the sweep
// also runs once at startup to catch up on a midnight missed while down.
func NewStreakSweepJob(sweeper Sweeper, loc *time.Location, runNow bool) *StreakSweepJob {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakSweepJob{sweeper: sweeper, loc: loc, runNow: runNow, now: time.Now}
}

func (job *StreakSweepJob) Do(ctx context.Context) {
	if _, err := job.sweeper.Run(ctx, job.now()); err != nil {
		log.Error().Err(err).Msg("Streak sweep failed")
	}
}

func (job *StreakSweepJob) RunNow() bool {
	return job.runNow
}

func (job *StreakSweepJob) Next() time.Time {
	return streak.NextMidnight(job.now(), job.loc)
}
