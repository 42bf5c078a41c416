// Package jobs runs background work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const defaultRunTimeout = 10 * time.Minute

type Reconciler interface {
	ReconcileFixtures(ctx context.Context) (usecase.ReconcileResult, error)
}

type SchedulerConfig struct {
	// Schedule is a six-field cron spec with a leading seconds field.
	Schedule string
	Timeout  time.Duration
}

// Scheduler runs fixture reconciliation on a cron schedule. A tick that
// fires while the previous run is still active is skipped.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     *logging.Logger
	timeout    time.Duration
	job        cron.Job

	// ctx is cancelled by Stop to abort an active run.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(reconciler Reconciler, logger *logging.Logger, cfg SchedulerConfig) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("jobs")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRunTimeout
	}

	cronLog := cronLogger{logger: logger}
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLogger(cronLog), cron.WithLocation(time.UTC)),
		reconciler: reconciler,
		logger:     logger,
		timeout:    cfg.Timeout,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(s.runReconcile))

	if _, err := s.cron.AddJob(cfg.Schedule, s.job); err != nil {
		return nil, fmt.Errorf("parse reconcile schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reconcile scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts new ticks, cancels an active run and waits for it to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("reconcile scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for reconcile run: %w", ctx.Err())
	}
}

// NextRun reports when the next reconciliation fires.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	started := time.Now()
	s.logger.InfoContext(ctx, "scheduled reconciliation started", "timeout", s.timeout)

	result, err := s.reconciler.ReconcileFixtures(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled reconciliation failed",
			"upserted", result.Count,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return
	}

	s.logger.InfoContext(ctx, "scheduled reconciliation completed",
		"upserted", result.Count,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron "+msg, append(keysAndValues, "error", err)...)
}
