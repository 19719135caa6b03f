// Package scheduler runs the service's background jobs on cron
// schedules: cache cleanup, daily exposure snapshots, and the optional
// database backup.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler wraps robfig/cron with logging and error capture.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler. Schedules are interpreted in UTC so job
// times do not drift with the host timezone.
func New(log zerolog.Logger) *Scheduler {
	scoped := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{scoped})),
		),
		log: scoped,
	}
}

// Register adds a job on the given cron spec.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Scheduled job failed")
			return
		}
		s.log.Info().
			Str("job", job.Name()).
			Dur("duration", time.Since(start)).
			Msg("Scheduled job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", job.Name(), spec, err)
	}

	s.log.Info().Str("job", job.Name()).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// cronLogger adapts zerolog to cron's logger interface, used by the
// panic-recovery chain.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
