package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Lock keys for the invoice jobs. One key per job so a slow scan does not
// block the regeneration run on another instance.
const (
	lockKeyRecurring = "crm:jobs:invoice-recurring"
	lockKeyDaily     = "crm:jobs:invoice-daily"
)

// LifecycleRunner is the slice of the lifecycle service the scheduler drives
type LifecycleRunner interface {
	RegenerateDueRecurring(ctx context.Context) (int, error)
	DemoteOverdue(ctx context.Context) (int, error)
}

// DispatchRunner is the slice of the dispatch service the scheduler drives
type DispatchRunner interface {
	ScanOverdue(ctx context.Context) (int, error)
	ScanDueSoon(ctx context.Context) (int, error)
}

// CronScheduler runs the invoice lifecycle and reminder jobs on cron
// schedules. With a JobLocker configured, each job run is serialized across
// instances; a run that loses the lock is skipped, not queued.
type CronScheduler struct {
	cfg       config.SchedulerConfig
	lifecycle LifecycleRunner
	dispatch  DispatchRunner
	locker    JobLocker // nil disables cross-instance locking
	logger    *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewCronScheduler creates a new CronScheduler. locker may be nil.
func NewCronScheduler(
	cfg config.SchedulerConfig,
	lifecycle LifecycleRunner,
	dispatch DispatchRunner,
	locker JobLocker,
	logger *zap.Logger,
) *CronScheduler {
	return &CronScheduler{
		cfg:       cfg,
		lifecycle: lifecycle,
		dispatch:  dispatch,
		locker:    locker,
		logger:    logger,
	}
}

// Start registers the cron entries and starts the ticker. The overdue check
// also runs once shortly after startup so a long-stopped instance catches up
// without waiting for the next scheduled run.
func (s *CronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	cronLogger := &zapCronLogger{logger: s.logger.Named("cron")}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	if _, err := s.cron.AddFunc(s.cfg.RecurringSchedule, func() {
		s.runLocked(ctx, lockKeyRecurring, s.runRecurring)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.OverdueSchedule, func() {
		s.runLocked(ctx, lockKeyDaily, s.runDailyScans)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Invoice scheduler started",
		zap.String("recurring_schedule", s.cfg.RecurringSchedule),
		zap.String("overdue_schedule", s.cfg.OverdueSchedule),
	)

	go s.startupOverdueCheck(ctx)

	return nil
}

// Stop stops the cron ticker and waits for in-flight jobs to finish, up to
// the context deadline.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Invoice scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Invoice scheduler stop timed out")
		return ctx.Err()
	}
}

// startupOverdueCheck demotes overdue invoices once after the configured
// delay, so the daily schedule is a cadence rather than a prerequisite.
func (s *CronScheduler) startupOverdueCheck(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.StartupCheckDelay):
	}

	s.runLocked(ctx, lockKeyDaily, func(ctx context.Context) {
		s.logger.Info("Running startup overdue check")
		if _, err := s.lifecycle.DemoteOverdue(ctx); err != nil {
			s.logger.Error("Startup overdue check failed", zap.Error(err))
		}
	})
}

// runLocked executes fn under the named cross-instance lock when a locker is
// configured. Losing the lock means another instance is running the job;
// this run is skipped.
func (s *CronScheduler) runLocked(ctx context.Context, key string, fn func(ctx context.Context)) {
	if s.locker == nil {
		fn(ctx)
		return
	}

	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if err == ErrLockHeld {
			s.logger.Info("Job lock held elsewhere, skipping run", zap.String("key", key))
			return
		}
		s.logger.Error("Failed to acquire job lock", zap.String("key", key), zap.Error(err))
		return
	}
	defer release()

	fn(ctx)
}

// runRecurring spawns copies for recurring invoices whose next run arrived
func (s *CronScheduler) runRecurring(ctx context.Context) {
	created, err := s.lifecycle.RegenerateDueRecurring(ctx)
	if err != nil {
		s.logger.Error("Recurring invoice job failed", zap.Error(err))
		return
	}
	s.logger.Info("Recurring invoice job finished", zap.Int("created", created))
}

// runDailyScans demotes overdue invoices, then runs both reminder scans.
// Demotion runs first and unconditionally; the scans depend on reminder
// configuration and must not gate it.
func (s *CronScheduler) runDailyScans(ctx context.Context) {
	if demoted, err := s.lifecycle.DemoteOverdue(ctx); err != nil {
		s.logger.Error("Overdue demotion failed", zap.Error(err))
	} else if demoted > 0 {
		s.logger.Info("Demoted overdue invoices", zap.Int("count", demoted))
	}

	if _, err := s.dispatch.ScanOverdue(ctx); err != nil {
		s.logger.Error("Overdue reminder scan failed", zap.Error(err))
	}

	if _, err := s.dispatch.ScanDueSoon(ctx); err != nil {
		s.logger.Error("Due soon reminder scan failed", zap.Error(err))
	}
}

// zapCronLogger adapts zap to the cron logger interface
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
