package horoscope

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/database/testutil"
	"github.com/astromitra/astromitra/internal/models"
)

func seedEntry(t *testing.T, store *GormStore, sign Sign, period Period, key string, validUntil time.Time, active bool) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), &models.HoroscopeEntry{
		Sign:        string(sign),
		Period:      string(period),
		PeriodKey:   key,
		RawContent:  []byte(`{"prediction":"seed"}`),
		GeneratedAt: validUntil.Add(-24 * time.Hour),
		ValidUntil:  validUntil,
		IsActive:    active,
	}))
}

func TestGormStoreFindActive(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	validUntil := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	seedEntry(t, store, Aries, Monthly, "2026-03", validUntil, true)
	seedEntry(t, store, Leo, Monthly, "2026-03", validUntil, false)

	found, err := store.FindActive(ctx, Aries, Monthly, "2026-03")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "aries", found.Sign)

	// Inactive rows are invisible to the read path.
	missing, err := store.FindActive(ctx, Leo, Monthly, "2026-03")
	require.NoError(t, err)
	require.Nil(t, missing)

	// Unknown keys return nil without error.
	missing, err = store.FindActive(ctx, Aries, Monthly, "2026-04")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGormStoreUpsertReplacesOnNaturalKey(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	generated := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)

	first := &models.HoroscopeEntry{
		Sign:        "pisces",
		Period:      "daily",
		PeriodKey:   "2026-03-10",
		RawContent:  []byte(`{"prediction":"v1"}`),
		GeneratedAt: generated,
		ValidUntil:  generated.Add(18 * time.Hour),
		IsActive:    true,
	}
	require.NoError(t, store.Upsert(ctx, first))

	second := &models.HoroscopeEntry{
		Sign:              "pisces",
		Period:            "daily",
		PeriodKey:         "2026-03-10",
		RawContent:        []byte(`{"prediction":"v2"}`),
		EnrichedNarrative: []byte(`{"narrative":"renewed"}`),
		GeneratedAt:       generated.Add(time.Hour),
		ValidUntil:        generated.Add(18 * time.Hour),
		IsActive:          true,
	}
	require.NoError(t, store.Upsert(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.HoroscopeEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// The merge keeps the original row; callers get its identity back.
	require.Equal(t, first.ID, second.ID)

	stored, err := store.FindActive(ctx, Pisces, Daily, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.JSONEq(t, `{"prediction":"v2"}`, string(stored.RawContent))
	require.JSONEq(t, `{"narrative":"renewed"}`, string(stored.EnrichedNarrative))
}

func TestGormStoreUpsertPersistsInactiveFlag(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	validUntil := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	// Insert path: IsActive=false must survive the write as-is, not be
	// replaced by a column default.
	seedEntry(t, store, Virgo, Monthly, "2026-03", validUntil, false)

	var row models.HoroscopeEntry
	require.NoError(t, db.Where("sign = ? AND period_key = ?", "virgo", "2026-03").First(&row).Error)
	require.False(t, row.IsActive)

	// Update path: an upsert can also flip an active row off.
	seedEntry(t, store, Virgo, Monthly, "2026-03", validUntil, true)
	seedEntry(t, store, Virgo, Monthly, "2026-03", validUntil, false)

	require.NoError(t, db.Where("sign = ? AND period_key = ?", "virgo", "2026-03").First(&row).Error)
	require.False(t, row.IsActive)
}

func TestGormStoreDeactivateAll(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	validUntil := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	seedEntry(t, store, Taurus, Daily, "2026-03-09", validUntil, true)
	seedEntry(t, store, Taurus, Daily, "2026-03-10", validUntil, true)
	seedEntry(t, store, Taurus, Weekly, "2026-W11", validUntil, true)

	count, err := store.DeactivateAll(ctx, Taurus, Daily)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// The weekly row for the same sign is untouched.
	weekly, err := store.FindActive(ctx, Taurus, Weekly, "2026-W11")
	require.NoError(t, err)
	require.NotNil(t, weekly)

	// Deactivation keeps the rows.
	var total int64
	require.NoError(t, db.Model(&models.HoroscopeEntry{}).Count(&total).Error)
	require.Equal(t, int64(3), total)
}

func TestGormStoreDeleteExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	seedEntry(t, store, Aries, Daily, "2026-03-08", now.Add(-36*time.Hour), true)
	seedEntry(t, store, Leo, Daily, "2026-03-09", now.Add(-10*time.Hour), false)
	seedEntry(t, store, Virgo, Daily, "2026-03-10", now.Add(14*time.Hour), true)

	removed, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	var total int64
	require.NoError(t, db.Model(&models.HoroscopeEntry{}).Count(&total).Error)
	require.Equal(t, int64(1), total)
}
