// Package scheduler runs the periodic pipeline jobs on fixed
// intervals, in registration order, so collection always precedes
// aggregation and scoring within a tick.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTick is the scheduling resolution. Job intervals shorter than
// the tick fire once per tick.
const DefaultTick = 30 * time.Second

// Job is one periodic unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type jobState struct {
	job     Job
	lastRun time.Time
}

// Due reports whether the job should fire at now. A job that has never
// run is immediately due.
func (s *jobState) Due(now time.Time) bool {
	if s.lastRun.IsZero() {
		return true
	}
	return now.Sub(s.lastRun) >= s.job.Interval
}

// Scheduler drives registered jobs from a single ticker loop. Jobs run
// sequentially in registration order; a failing job is logged and
// retried on its next interval without stopping the loop.
type Scheduler struct {
	jobs   []*jobState
	tick   time.Duration
	logger zerolog.Logger
}

// New creates a new scheduler
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		tick:   DefaultTick,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job to the run order
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job name and run function are required")
	}
	if job.Interval <= 0 {
		return errors.New("job interval must be positive")
	}
	s.jobs = append(s.jobs, &jobState{job: job})
	return nil
}

// Run blocks until the context is cancelled, firing due jobs on every
// tick. All jobs are due on the first tick so a fresh process starts
// with a full pipeline pass.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return errors.New("no jobs registered")
	}

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.runDue(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.runDue(ctx, now)
		}
	}
}

// RunAll fires every job once in registration order, stopping at the
// first failure. Used for one-shot pipeline runs.
func (s *Scheduler) RunAll(ctx context.Context) error {
	for _, state := range s.jobs {
		if err := s.runJob(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, state := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		if !state.Due(now) {
			continue
		}
		if err := s.runJob(ctx, state); err != nil {
			s.logger.Error().Err(err).Str("job", state.job.Name).Msg("Job failed")
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, state *jobState) error {
	start := time.Now()
	state.lastRun = start

	s.logger.Debug().Str("job", state.job.Name).Msg("Job started")

	if err := state.job.Run(ctx); err != nil {
		return err
	}

	s.logger.Info().
		Str("job", state.job.Name).
		Dur("duration", time.Since(start)).
		Msg("Job completed")
	return nil
}
