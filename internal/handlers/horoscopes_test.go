package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/database/testutil"
	"github.com/astromitra/astromitra/internal/horoscope"
)

type scriptedFetcher struct {
	calls int
	fail  bool
}

func (f *scriptedFetcher) Fetch(_ context.Context, sign horoscope.Sign, period horoscope.Period, _ time.Time) (json.RawMessage, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("engine offline")
	}
	raw, _ := json.Marshal(map[string]string{"sign": string(sign), "period": string(period), "mood": "good"})
	return raw, nil
}

func newHoroscopeRouter(t *testing.T, fetcher horoscope.Fetcher) *gin.Engine {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := horoscope.NewGormStore(db)
	require.NoError(t, err)
	engine, err := horoscope.NewEngine(store, fetcher, nil)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHoroscopeHandler(engine)
	router.GET("/api/horoscopes/signs", handler.Signs)
	router.GET("/api/horoscopes/:sign/:period", handler.Get)
	return router
}

func TestGetHoroscopeServesAndCaches(t *testing.T) {
	fetcher := &scriptedFetcher{}
	router := newHoroscopeRouter(t, fetcher)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/horoscopes/aries/daily", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"sign":"aries"`)
	}

	// Second read was a cache hit.
	require.Equal(t, 1, fetcher.calls)
}

func TestGetHoroscopeUnknownSign(t *testing.T) {
	router := newHoroscopeRouter(t, &scriptedFetcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/horoscopes/ophiuchus/daily", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHoroscopeUpstreamDown(t *testing.T) {
	router := newHoroscopeRouter(t, &scriptedFetcher{fail: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/horoscopes/leo/weekly", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetHoroscopeRejectsBadDate(t *testing.T) {
	router := newHoroscopeRouter(t, &scriptedFetcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/horoscopes/leo/daily?date=31-01-2026", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSigns(t *testing.T) {
	router := newHoroscopeRouter(t, &scriptedFetcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/horoscopes/signs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Signs   []map[string]string `json:"signs"`
			Periods []string            `json:"periods"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Signs, 12)
	require.Len(t, body.Data.Periods, 4)
}
