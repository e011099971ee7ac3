package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/database/testutil"
	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/internal/push"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

type stubFetcher struct {
	mu      sync.Mutex
	failFor map[horoscope.Sign]bool
}

func (f *stubFetcher) Fetch(_ context.Context, sign horoscope.Sign, period horoscope.Period, _ time.Time) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[sign] {
		return nil, errors.New("upstream down")
	}
	payload := map[string]string{"sign": string(sign), "period": string(period)}
	raw, _ := json.Marshal(payload)
	return raw, nil
}

type stubNotifier struct {
	mu     sync.Mutex
	tokens []string
	msgs   []push.Message
}

func (n *stubNotifier) Send(_ context.Context, tokens []string, msg push.Message) push.SendReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens = append([]string(nil), tokens...)
	n.msgs = append(n.msgs, msg)
	return push.SendReport{Delivered: len(tokens)}
}

func newAdminFixture(t *testing.T, fetcher horoscope.Fetcher, notifier Notifier) (*HoroscopeAdminService, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	store, err := horoscope.NewGormStore(db)
	require.NoError(t, err)
	engine, err := horoscope.NewEngine(store, fetcher, nil, horoscope.WithBatchDelay(time.Millisecond))
	require.NoError(t, err)

	devices, err := NewDeviceTokenService(db)
	require.NoError(t, err)

	svc, err := NewHoroscopeAdminService(engine, nil, devices, notifier)
	require.NoError(t, err)
	return svc, db
}

func TestRegeneratePeriodReportsFailures(t *testing.T) {
	fetcher := &stubFetcher{failFor: map[horoscope.Sign]bool{horoscope.Scorpio: true}}
	svc, _ := newAdminFixture(t, fetcher, nil)

	report, err := svc.RegeneratePeriod(context.Background(), "daily")
	require.NoError(t, err)
	require.Len(t, report.Succeeded, 11)
	require.Len(t, report.Failed, 1)
	require.Equal(t, horoscope.Scorpio, report.Failed[0].Sign)
}

func TestRegeneratePeriodRejectsUnknownPeriod(t *testing.T) {
	svc, _ := newAdminFixture(t, &stubFetcher{}, nil)

	_, err := svc.RegeneratePeriod(context.Background(), "hourly")
	require.ErrorIs(t, err, apperrors.ErrInvalidPeriod)
}

func TestRegenerateSignAndInvalidate(t *testing.T) {
	svc, _ := newAdminFixture(t, &stubFetcher{}, nil)

	result, err := svc.RegenerateSign(context.Background(), "LEO", "weekly")
	require.NoError(t, err)
	require.Equal(t, horoscope.Leo, result.Sign)
	require.NotEmpty(t, result.PeriodKey)

	affected, err := svc.Invalidate(context.Background(), "leo", "weekly")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

func TestBroadcastReachesAllDevices(t *testing.T) {
	notifier := &stubNotifier{}
	svc, db := newAdminFixture(t, &stubFetcher{}, notifier)

	users, err := NewUserService(db)
	require.NoError(t, err)
	user, err := users.Register(context.Background(), RegisterInput{Email: "bc@example.com", Password: "pass-word"})
	require.NoError(t, err)

	devices, err := NewDeviceTokenService(db)
	require.NoError(t, err)
	_, err = devices.Register(context.Background(), user.ID, "tok-1", "android")
	require.NoError(t, err)
	_, err = devices.Register(context.Background(), user.ID, "tok-2", "ios")
	require.NoError(t, err)

	report, err := svc.Broadcast(context.Background(), BroadcastInput{
		Title: "New yearly horoscopes",
		Body:  "2027 forecasts are live.",
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Delivered)
	require.Len(t, notifier.tokens, 2)
}

func TestBroadcastWithoutNotifier(t *testing.T) {
	svc, _ := newAdminFixture(t, &stubFetcher{}, nil)

	_, err := svc.Broadcast(context.Background(), BroadcastInput{Title: "hello"})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "PUSH_DISABLED", appErr.Code)
}

func TestStatsAfterRegeneration(t *testing.T) {
	svc, _ := newAdminFixture(t, &stubFetcher{}, nil)

	_, err := svc.RegeneratePeriod(context.Background(), "monthly")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	var monthly *horoscope.PeriodStats
	for i := range stats {
		if stats[i].Period == horoscope.Monthly {
			monthly = &stats[i]
		}
	}
	require.NotNil(t, monthly)
	require.EqualValues(t, 12, monthly.Active)
}

func TestRegenerateAllCoversEveryPeriod(t *testing.T) {
	svc, _ := newAdminFixture(t, &stubFetcher{}, nil)

	reports, err := svc.RegenerateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for _, period := range horoscope.Periods() {
		require.Contains(t, reports, period)
		require.Len(t, reports[period].Succeeded, 12)
		require.Empty(t, reports[period].Failed)
	}
}
