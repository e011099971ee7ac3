package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/internal/push"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/logger"
)

// Notifier fans a message out to device tokens.
type Notifier interface {
	Send(ctx context.Context, tokens []string, msg push.Message) push.SendReport
}

// HoroscopeAdminService is the facade behind the admin horoscope API:
// forced regenerations, invalidation, sweeps, stats, scheduler
// inspection and push broadcasts.
type HoroscopeAdminService struct {
	engine    *horoscope.Engine
	scheduler *horoscope.Scheduler
	devices   *DeviceTokenService
	notifier  Notifier
	log       *zap.Logger
}

// NewHoroscopeAdminService constructs the admin facade. The notifier is
// optional; broadcasts fail cleanly without one.
func NewHoroscopeAdminService(engine *horoscope.Engine, scheduler *horoscope.Scheduler, devices *DeviceTokenService, notifier Notifier) (*HoroscopeAdminService, error) {
	if engine == nil {
		return nil, errors.New("horoscope admin service: engine is required")
	}
	return &HoroscopeAdminService{
		engine:    engine,
		scheduler: scheduler,
		devices:   devices,
		notifier:  notifier,
		log:       logger.WithModule("horoscope.admin"),
	}, nil
}

// RegeneratePeriod forces a refresh of all twelve signs for a period.
func (s *HoroscopeAdminService) RegeneratePeriod(ctx context.Context, periodInput string) (*horoscope.BatchReport, error) {
	period, err := horoscope.ParsePeriod(periodInput)
	if err != nil {
		return nil, err
	}

	report := s.engine.RegenerateAllForPeriod(ensureContext(ctx), period, s.engine.Now())
	s.log.Info("forced period regeneration",
		zap.String("period", string(period)),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// RegenerateAll forces a refresh of every sign across all four periods.
// Reports are keyed by period; a period with failures does not stop the
// remaining periods.
func (s *HoroscopeAdminService) RegenerateAll(ctx context.Context) (map[horoscope.Period]*horoscope.BatchReport, error) {
	ctx = ensureContext(ctx)

	reports := make(map[horoscope.Period]*horoscope.BatchReport, len(horoscope.Periods()))
	for _, period := range horoscope.Periods() {
		report := s.engine.RegenerateAllForPeriod(ctx, period, s.engine.Now())
		reports[period] = report
		s.log.Info("forced period regeneration",
			zap.String("period", string(period)),
			zap.Int("succeeded", len(report.Succeeded)),
			zap.Int("failed", len(report.Failed)),
		)
	}
	return reports, nil
}

// RegenerateSign forces a refresh of a single sign and period.
func (s *HoroscopeAdminService) RegenerateSign(ctx context.Context, signInput, periodInput string) (*horoscope.Result, error) {
	sign, err := horoscope.ParseSign(signInput)
	if err != nil {
		return nil, err
	}
	period, err := horoscope.ParsePeriod(periodInput)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.RegenerateOne(ensureContext(ctx), sign, period, s.engine.Now())
	if err != nil {
		return nil, err
	}
	result := &horoscope.Result{
		Sign:        sign,
		Period:      period,
		PeriodKey:   entry.PeriodKey,
		Content:     json.RawMessage(entry.RawContent),
		GeneratedAt: entry.GeneratedAt,
		ValidUntil:  entry.ValidUntil,
	}
	if len(entry.EnrichedNarrative) > 0 {
		result.Narrative = json.RawMessage(entry.EnrichedNarrative)
	}
	return result, nil
}

// Invalidate deactivates the cached entry for a sign and period.
func (s *HoroscopeAdminService) Invalidate(ctx context.Context, signInput, periodInput string) (int64, error) {
	return s.engine.Invalidate(ensureContext(ctx), signInput, periodInput)
}

// Sweep physically removes expired cache entries.
func (s *HoroscopeAdminService) Sweep(ctx context.Context) (int64, error) {
	return s.engine.SweepExpired(ensureContext(ctx), s.engine.Now())
}

// Stats reports active and expired entry counts per period.
func (s *HoroscopeAdminService) Stats(ctx context.Context) ([]horoscope.PeriodStats, error) {
	return s.engine.Stats(ensureContext(ctx))
}

// Jobs reports the scheduler's registered jobs and next run times.
func (s *HoroscopeAdminService) Jobs() []horoscope.JobStatus {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Status()
}

// SchedulerRunning reports whether the refresh scheduler is active.
func (s *HoroscopeAdminService) SchedulerRunning() bool {
	return s.scheduler != nil && s.scheduler.Running()
}

// BroadcastInput describes an admin push broadcast.
type BroadcastInput struct {
	Title string
	Body  string
	Data  map[string]string
}

// Broadcast sends a notification to every registered device.
func (s *HoroscopeAdminService) Broadcast(ctx context.Context, input BroadcastInput) (*push.SendReport, error) {
	if s.notifier == nil || s.devices == nil {
		return nil, apperrors.New("PUSH_DISABLED", "Push notifications are not configured", 503)
	}
	if input.Title == "" && input.Body == "" {
		return nil, apperrors.NewBadRequest("broadcast title or body is required")
	}

	ctx = ensureContext(ctx)
	tokens, err := s.devices.AllTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("horoscope admin service: load tokens: %w", err)
	}

	report := s.notifier.Send(ctx, tokens, push.Message{
		Title: input.Title,
		Body:  input.Body,
		Data:  input.Data,
	})
	s.log.Info("broadcast sent",
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)
	return &report, nil
}

// NotifyDailyReady pushes a short "your horoscope is ready" nudge after
// the daily refresh completes. Failures are logged, never propagated.
func (s *HoroscopeAdminService) NotifyDailyReady(ctx context.Context, day time.Time) {
	if s.notifier == nil || s.devices == nil {
		return
	}

	ctx = ensureContext(ctx)
	tokens, err := s.devices.AllTokens(ctx)
	if err != nil || len(tokens) == 0 {
		return
	}

	report := s.notifier.Send(ctx, tokens, push.Message{
		Title: "Your daily horoscope is ready",
		Body:  "See what the stars have in store for " + day.Format("Jan 2") + ".",
		Data:  map[string]string{"type": "daily_horoscope"},
	})
	if report.Failed > 0 {
		s.log.Warn("daily nudge partially failed",
			zap.Int("delivered", report.Delivered),
			zap.Int("failed", report.Failed),
		)
	}
}
