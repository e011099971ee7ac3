package horoscope

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/astromitra/astromitra/internal/models"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/logger"
	"github.com/astromitra/astromitra/pkg/metrics"
)

// defaultBatchDelay spaces out sequential regenerations so bulk refreshes
// do not hammer the rate-limited upstreams.
const defaultBatchDelay = 300 * time.Millisecond

// Fetcher retrieves raw horoscope content from the astrology engine.
type Fetcher interface {
	Fetch(ctx context.Context, sign Sign, period Period, ref time.Time) (json.RawMessage, error)
}

// Enricher produces an AI narrative for raw horoscope content. Failures
// are reported through the error return; the engine absorbs them and
// caches the entry without a narrative.
type Enricher interface {
	Enrich(ctx context.Context, sign Sign, period Period, raw json.RawMessage) (json.RawMessage, error)
}

// Result is the consumer-facing read value.
type Result struct {
	Sign      Sign            `json:"sign"`
	Period    Period          `json:"period"`
	PeriodKey string          `json:"period_key"`
	Content   json.RawMessage `json:"content"`
	Narrative json.RawMessage `json:"narrative,omitempty"`

	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generated_at"`
	ValidUntil  time.Time `json:"valid_until"`
}

// BatchReport summarises a full-period regeneration across all signs.
type BatchReport struct {
	Period    Period         `json:"period"`
	Succeeded []Sign         `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// BatchFailure records one sign that could not be regenerated.
type BatchFailure struct {
	Sign   Sign   `json:"sign"`
	Reason string `json:"reason"`
}

// Engine orchestrates the horoscope cache: look up, regenerate on miss or
// expiry, enrich best-effort, and serve. It is stateless between calls
// apart from the store it reads and writes.
type Engine struct {
	store    Store
	fetcher  Fetcher
	enricher Enricher

	now        func() time.Time
	loc        *time.Location
	batchDelay time.Duration

	group singleflight.Group
	log   *zap.Logger
}

// EngineOption customises the Engine.
type EngineOption func(*Engine)

// WithNow overrides the engine clock, primarily for tests.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the calendar timezone used for period bucketing.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithBatchDelay adjusts the pause between sequential sign regenerations.
func WithBatchDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		if delay >= 0 {
			e.batchDelay = delay
		}
	}
}

// NewEngine constructs the cache engine. The enricher may be nil, in which
// case entries are cached without narratives.
func NewEngine(store Store, fetcher Fetcher, enricher Enricher, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, errors.New("horoscope engine: store is required")
	}
	if fetcher == nil {
		return nil, errors.New("horoscope engine: fetcher is required")
	}

	engine := &Engine{
		store:      store,
		fetcher:    fetcher,
		enricher:   enricher,
		now:        time.Now,
		loc:        time.Local,
		batchDelay: defaultBatchDelay,
		log:        logger.WithModule("horoscope"),
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine, nil
}

// Get serves the horoscope for a sign and period relative to the reference
// date. Fresh cached content is returned as-is; a miss or an expired entry
// triggers synchronous regeneration so the read path never serves content
// past its own expiry.
func (e *Engine) Get(ctx context.Context, signInput, periodInput string, ref time.Time) (*Result, error) {
	sign, err := ParseSign(signInput)
	if err != nil {
		return nil, err
	}
	period, err := ParsePeriod(periodInput)
	if err != nil {
		return nil, err
	}

	ref = ref.In(e.loc)
	key := PeriodKey(period, ref)

	entry, err := e.store.FindActive(ctx, sign, period, key)
	if err != nil {
		return nil, err
	}

	now := e.now().In(e.loc)
	if entry != nil && now.Before(entry.ValidUntil) {
		metrics.HoroscopeCacheLookups.WithLabelValues(string(period), "hit").Inc()
		return resultFromEntry(entry, true), nil
	}

	outcome := "miss"
	if entry != nil {
		outcome = "stale"
	}
	metrics.HoroscopeCacheLookups.WithLabelValues(string(period), outcome).Inc()

	fresh, err := e.RegenerateOne(ctx, sign, period, ref)
	if err != nil {
		return nil, err
	}
	return resultFromEntry(fresh, false), nil
}

// RegenerateOne runs the write path for a single key: fetch, enrich
// best-effort, upsert. A fetch failure leaves any previous entry
// untouched. Concurrent regenerations of the same key share a single
// in-flight upstream call.
func (e *Engine) RegenerateOne(ctx context.Context, sign Sign, period Period, ref time.Time) (*models.HoroscopeEntry, error) {
	ref = ref.In(e.loc)
	key := string(sign) + "|" + string(period) + "|" + PeriodKey(period, ref)

	value, err, _ := e.group.Do(key, func() (any, error) {
		return e.regenerate(ctx, sign, period, ref)
	})
	if err != nil {
		return nil, err
	}

	entry, ok := value.(*models.HoroscopeEntry)
	if !ok {
		return nil, errors.New("horoscope engine: unexpected regeneration result")
	}
	return entry, nil
}

func (e *Engine) regenerate(ctx context.Context, sign Sign, period Period, ref time.Time) (*models.HoroscopeEntry, error) {
	raw, err := e.fetcher.Fetch(ctx, sign, period, ref)
	if err != nil {
		metrics.HoroscopeRegenerations.WithLabelValues(string(period), "fetch_failed").Inc()
		return nil, apperrors.ErrUpstreamUnavailable.WithInternal(err)
	}

	var narrative json.RawMessage
	if e.enricher != nil {
		narrative, err = e.enricher.Enrich(ctx, sign, period, raw)
		if err != nil {
			// Enrichment is best-effort: cache the raw content anyway.
			metrics.EnrichmentFailures.Inc()
			e.log.Warn("narrative enrichment failed",
				zap.String("sign", string(sign)),
				zap.String("period", string(period)),
				zap.Error(err),
			)
			narrative = nil
		}
	}

	now := e.now().In(e.loc)
	entry := &models.HoroscopeEntry{
		Sign:              string(sign),
		Period:            string(period),
		PeriodKey:         PeriodKey(period, ref),
		RawContent:        datatypes.JSON(raw),
		EnrichedNarrative: datatypes.JSON(narrative),
		GeneratedAt:       now,
		ValidUntil:        ValidUntil(period, ref),
		IsActive:          true,
	}

	if err := e.store.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	metrics.HoroscopeRegenerations.WithLabelValues(string(period), "success").Inc()
	return entry, nil
}

// RegenerateAllForPeriod refreshes all twelve signs for the period,
// sequentially with an inter-item delay. A single sign's failure is
// recorded and does not abort the batch.
func (e *Engine) RegenerateAllForPeriod(ctx context.Context, period Period, ref time.Time) *BatchReport {
	report := &BatchReport{Period: period}

	for i, sign := range Signs() {
		if i > 0 && e.batchDelay > 0 {
			select {
			case <-ctx.Done():
				report.Failed = append(report.Failed, BatchFailure{Sign: sign, Reason: ctx.Err().Error()})
				continue
			case <-time.After(e.batchDelay):
			}
		}

		if _, err := e.RegenerateOne(ctx, sign, period, ref); err != nil {
			e.log.Warn("sign regeneration failed",
				zap.String("sign", string(sign)),
				zap.String("period", string(period)),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, BatchFailure{Sign: sign, Reason: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, sign)
	}

	return report
}

// Invalidate deactivates every active entry for the sign+period so the
// next read regenerates. Rows are kept; the sweep reclaims them once
// their natural boundary passes.
func (e *Engine) Invalidate(ctx context.Context, signInput, periodInput string) (int64, error) {
	sign, err := ParseSign(signInput)
	if err != nil {
		return 0, err
	}
	period, err := ParsePeriod(periodInput)
	if err != nil {
		return 0, err
	}
	return e.store.DeactivateAll(ctx, sign, period)
}

// SweepExpired removes rows whose validity window has passed, regardless
// of their active flag.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return e.store.DeleteExpired(ctx, now.In(e.loc))
}

// Stats exposes cache occupancy counts for the admin surface.
func (e *Engine) Stats(ctx context.Context) ([]PeriodStats, error) {
	return e.store.Stats(ctx, e.now().In(e.loc))
}

// Location returns the calendar timezone the engine buckets against.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now returns the engine's current time in its configured timezone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

func resultFromEntry(entry *models.HoroscopeEntry, cached bool) *Result {
	result := &Result{
		Sign:        Sign(entry.Sign),
		Period:      Period(entry.Period),
		PeriodKey:   entry.PeriodKey,
		Content:     json.RawMessage(entry.RawContent),
		Cached:      cached,
		GeneratedAt: entry.GeneratedAt,
		ValidUntil:  entry.ValidUntil,
	}
	if len(entry.EnrichedNarrative) > 0 {
		result.Narrative = json.RawMessage(entry.EnrichedNarrative)
	}
	return result
}
