package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. It returns an error only when the
// run as a whole failed.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules in the worker timezone. Overlapping
// runs of the same job are skipped and panics are recovered.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *WorkerMetrics
	baseCtx context.Context
}

// NewScheduler creates a scheduler. metrics may be nil.
func NewScheduler(loc *time.Location, logger *slog.Logger, metrics *WorkerMetrics) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		metrics: metrics,
		baseCtx: context.Background(),
	}
}

// Add registers job under name with a timeout per run.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		_ = s.RunNow(s.baseCtx, name, timeout, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("schedule", spec))
	return nil
}

// RunNow executes job immediately with the same bookkeeping as a
// scheduled run.
func (s *Scheduler) RunNow(ctx context.Context, name string, timeout time.Duration, job Job) error {
	start := time.Now()
	s.logger.Info("job started", slog.String("job", name))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := job(ctx)
	d := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordJob(name, d, err)
	}
	if err != nil {
		s.logger.Error("job failed", slog.String("job", name), slog.Duration("duration", d), slog.Any("error", err))
		return err
	}
	s.logger.Info("job completed", slog.String("job", name), slog.Duration("duration", d))
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits
// for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.Any("error", err)}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
