package horoscope

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/astromitra/astromitra/pkg/logger"
)

// Default cron specifications. The sweep runs a few hours after the daily
// regeneration so it never races the fresh rows that regeneration just
// wrote; it only removes rows already past their validity boundary.
const (
	defaultDailySpec   = "0 6 * * *"   // every day 06:00
	defaultWeeklySpec  = "30 6 * * 1"  // Monday 06:30
	defaultMonthlySpec = "0 7 1 * *"   // 1st of the month 07:00
	defaultYearlySpec  = "30 7 1 1 *"  // January 1st 07:30
	defaultSweepSpec   = "0 10 * * *"  // every day 10:00
)

// Scheduler keeps the horoscope cache warm: it triggers full-period
// regeneration on calendar boundaries and sweeps expired rows daily. It
// is an explicit handle owned by the process bootstrap; Start is
// idempotent and Stop resets it to an uninitialised state.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
	now    func() time.Time
	log    *zap.Logger

	dailySpec   string
	weeklySpec  string
	monthlySpec string
	yearlySpec  string
	sweepSpec   string

	warmUp     bool
	afterDaily func(day time.Time)

	mu      sync.Mutex
	started bool
	jobs    map[string]cron.EntryID
}

// SchedulerOption customises the Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerCron injects a preconfigured cron instance, primarily for testing.
func WithSchedulerCron(c *cron.Cron) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedulerNow overrides the scheduler clock.
func WithSchedulerNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithoutWarmUp disables the best-effort daily regeneration on Start.
func WithoutWarmUp() SchedulerOption {
	return func(s *Scheduler) {
		s.warmUp = false
	}
}

// WithAfterDaily registers a hook invoked after each fully successful
// daily regeneration, typically to fan out "horoscope ready" pushes.
func WithAfterDaily(fn func(day time.Time)) SchedulerOption {
	return func(s *Scheduler) {
		s.afterDaily = fn
	}
}

// WithPeriodSpec overrides the cron specification for one period's
// regeneration trigger.
func WithPeriodSpec(period Period, spec string) SchedulerOption {
	return func(s *Scheduler) {
		if spec == "" {
			return
		}
		switch period {
		case Daily:
			s.dailySpec = spec
		case Weekly:
			s.weeklySpec = spec
		case Monthly:
			s.monthlySpec = spec
		case Yearly:
			s.yearlySpec = spec
		}
	}
}

// WithSweepSpec overrides the cron specification for the expiry sweep.
func WithSweepSpec(spec string) SchedulerOption {
	return func(s *Scheduler) {
		if spec != "" {
			s.sweepSpec = spec
		}
	}
}

// NewScheduler constructs a Scheduler around the cache engine.
func NewScheduler(engine *Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine:      engine,
		now:         time.Now,
		log:         logger.WithModule("horoscope.scheduler"),
		dailySpec:   defaultDailySpec,
		weeklySpec:  defaultWeeklySpec,
		monthlySpec: defaultMonthlySpec,
		yearlySpec:  defaultYearlySpec,
		sweepSpec:   defaultSweepSpec,
		warmUp:      true,
		jobs:        map[string]cron.EntryID{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers all triggers and launches the scheduler. Calling Start
// on a running scheduler is a no-op, so triggers are never registered
// twice.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	regenerations := []struct {
		name   string
		spec   string
		period Period
	}{
		{"regenerate_daily", s.dailySpec, Daily},
		{"regenerate_weekly", s.weeklySpec, Weekly},
		{"regenerate_monthly", s.monthlySpec, Monthly},
		{"regenerate_yearly", s.yearlySpec, Yearly},
	}

	for _, job := range regenerations {
		period := job.period
		id, err := s.cron.AddFunc(job.spec, func() {
			s.runRegeneration(period)
		})
		if err != nil {
			s.reset()
			return err
		}
		s.jobs[job.name] = id
	}

	sweepID, err := s.cron.AddFunc(s.sweepSpec, s.runSweep)
	if err != nil {
		s.reset()
		return err
	}
	s.jobs["sweep_expired"] = sweepID

	s.cron.Start()
	s.started = true

	if s.warmUp {
		go s.runRegeneration(Daily)
	}

	return nil
}

// Stop cancels all triggers and returns the scheduler to an
// uninitialised state. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.cron.Stop()
	s.reset()
	return ctx
}

// JobStatus describes one registered trigger for observability.
type JobStatus struct {
	Name string    `json:"name"`
	Next time.Time `json:"next_run,omitempty"`
}

// Status reports the registered triggers and their next run times. It is
// a read-only projection and plays no part in cache correctness.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for name, id := range s.jobs {
		statuses = append(statuses, JobStatus{
			Name: name,
			Next: s.cron.Entry(id).Next,
		})
	}
	return statuses
}

// Running reports whether the scheduler has active triggers.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// reset must be called with the mutex held.
func (s *Scheduler) reset() {
	for _, id := range s.jobs {
		s.cron.Remove(id)
	}
	s.jobs = map[string]cron.EntryID{}
	s.started = false
}

// runRegeneration executes one full-period refresh. Failures are logged
// and never propagate: the next tick proceeds regardless.
func (s *Scheduler) runRegeneration(period Period) {
	report := s.engine.RegenerateAllForPeriod(context.Background(), period, s.now())

	if len(report.Failed) > 0 {
		s.log.Warn("scheduled regeneration completed with failures",
			zap.String("period", string(period)),
			zap.Int("succeeded", len(report.Succeeded)),
			zap.Int("failed", len(report.Failed)),
		)
		return
	}

	s.log.Info("scheduled regeneration completed",
		zap.String("period", string(period)),
		zap.Int("succeeded", len(report.Succeeded)),
	)

	if period == Daily && s.afterDaily != nil {
		s.afterDaily(s.now())
	}
}

func (s *Scheduler) runSweep() {
	count, err := s.engine.SweepExpired(context.Background(), s.now())
	if err != nil {
		s.log.Warn("expiry sweep failed", zap.Error(err))
		return
	}
	s.log.Info("expiry sweep completed", zap.Int64("removed", count))
}
