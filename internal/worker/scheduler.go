package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"daycare/internal/attachment"
	applog "daycare/internal/log"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on standard five-field cron schedules. A job still
// running when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger *applog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *applog.Logger) *Scheduler {
	if logger == nil {
		logger = applog.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.WithComponent(applog.ComponentScheduler),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under schedule, e.g. "0 3 * * *" or "@every 1h".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.logger.Info("Job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// Start begins running jobs. Jobs receive a context derived from ctx that is
// cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", applog.FieldOperation, applog.OpStartup)
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped", applog.FieldOperation, applog.OpShutdown)
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", applog.FieldError, ctx.Err())
	}
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info("Running job immediately", "job", job.Name())
	return job.Run(s.jobContext())
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run(job Job) {
	s.logger.Debug("Running job", "job", job.Name())
	if err := job.Run(s.jobContext()); err != nil {
		s.logger.Error("Job failed", "job", job.Name(), applog.FieldError, err)
		return
	}
	s.logger.Debug("Job completed", "job", job.Name())
}

// SweepJob adapts an attachment sweeper to the scheduler.
type SweepJob struct {
	Sweeper *attachment.Sweeper
	Logger  *applog.Logger
}

func (j SweepJob) Name() string { return j.Sweeper.Name() }

func (j SweepJob) Run(ctx context.Context) error {
	report, err := j.Sweeper.Run(ctx)
	if err != nil {
		return err
	}
	logger := j.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger.InfoContext(ctx, "Attachment sweep finished",
		applog.FieldOperation, applog.OpSweep,
		"scanned", report.Scanned,
		"removed", len(report.Removed),
		"kept", report.Kept,
		"dangling", len(report.Dangling),
		"errors", report.Errors)
	return nil
}
