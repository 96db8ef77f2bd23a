// Package cron runs periodic background jobs on timers.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CronJob is a job the Manager reschedules after every run.
type CronJob interface {
	Do(context.Context)
	// RunNow reports whether the job runs once at start before its first
	// scheduled time.
	RunNow() bool
	Next() time.Time
}

// Manager owns the timers of its registered jobs.
type Manager struct {
	mu      sync.Mutex
	running sync.WaitGroup
	jobs    map[CronJob]*time.Timer
	stopped bool
	now     func() time.Time
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{jobs: make(map[CronJob]*time.Timer), now: time.Now}
}

// Register adds a job. Jobs registered after Start are ignored.
func (m *Manager) Register(job CronJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job] = nil
}

// Start schedules every job and blocks until ctx is done. It then stops all
// timers and waits for jobs in flight to return.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	jobs := make([]CronJob, 0, len(m.jobs))
	for job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mu.Unlock()

	log.Info().Int("jobs", len(jobs)).Msg("Cron manager started")
	for _, job := range jobs {
		if job.RunNow() {
			m.running.Add(1)
			go m.run(ctx, job)
		} else {
			m.schedule(ctx, job)
		}
	}

	<-ctx.Done()
	m.cancel()
	m.running.Wait()
	log.Info().Msg("Cron manager stopped")
	return nil
}

func (m *Manager) cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	for job, timer := range m.jobs {
		if timer != nil && timer.Stop() {
			// the timer never fired, so its run will not call Done
			m.running.Done()
		}
		m.jobs[job] = nil
	}
}

func (m *Manager) run(ctx context.Context, job CronJob) {
	defer m.running.Done()

	name := fmt.Sprintf("%T", job)
	started := m.now()
	log.Debug().Str("job", name).Msg("Cron job running")
	job.Do(ctx)
	log.Debug().Str("job", name).Dur("took", m.now().Sub(started)).Msg("Cron job finished")

	m.schedule(ctx, job)
}

func (m *Manager) schedule(ctx context.Context, job CronJob) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || ctx.Err() != nil {
		return
	}
	if _, ok := m.jobs[job]; !ok {
		return
	}

	wait := job.Next().Sub(m.now())
	if wait < 0 {
		wait = 0
	}
	m.running.Add(1)
	m.jobs[job] = time.AfterFunc(wait, func() { m.run(ctx, job) })
}
