package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/astro"
	"github.com/astromitra/astromitra/internal/database/testutil"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

type fakeChartEngine struct {
	lastDetails astro.BirthDetails
	chart       json.RawMessage
	err         error
}

func (f *fakeChartEngine) Kundli(_ context.Context, details astro.BirthDetails) (json.RawMessage, error) {
	f.lastDetails = details
	if f.err != nil {
		return nil, f.err
	}
	return f.chart, nil
}

func newKundliFixture(t *testing.T, engine ChartEngine) (*KundliService, string) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db)
	require.NoError(t, err)
	birth := time.Date(1990, time.July, 2, 0, 0, 0, 0, time.UTC)
	user, err := users.Register(context.Background(), RegisterInput{
		Email:          "kundli@example.com",
		Password:       "pass-word",
		FirstName:      "Ravi",
		LastName:       "Iyer",
		BirthDate:      &birth,
		BirthTime:      "04:30",
		BirthPlace:     "Chennai",
		BirthLatitude:  13.0827,
		BirthLongitude: 80.2707,
	})
	require.NoError(t, err)

	svc, err := NewKundliService(db, engine)
	require.NoError(t, err)
	return svc, user.ID
}

func TestGenerateKundliUsesStoredBirthDetails(t *testing.T) {
	engine := &fakeChartEngine{chart: json.RawMessage(`{"lagna":"simha"}`)}
	svc, userID := newKundliFixture(t, engine)

	kundli, err := svc.Generate(context.Background(), userID, GenerateKundliInput{})
	require.NoError(t, err)

	require.Equal(t, "Ravi Iyer", engine.lastDetails.Name)
	require.Equal(t, "1990-07-02", engine.lastDetails.Date)
	require.Equal(t, "04:30", engine.lastDetails.Time)
	require.Equal(t, "Chennai", engine.lastDetails.Place)
	require.InDelta(t, 5.5, engine.lastDetails.Timezone, 0.001)

	require.Equal(t, userID, kundli.UserID)
	require.JSONEq(t, `{"lagna":"simha"}`, string(kundli.Chart))
}

func TestGenerateKundliOverridesDetails(t *testing.T) {
	engine := &fakeChartEngine{chart: json.RawMessage(`{}`)}
	svc, userID := newKundliFixture(t, engine)

	birth := time.Date(2015, time.November, 9, 0, 0, 0, 0, time.UTC)
	_, err := svc.Generate(context.Background(), userID, GenerateKundliInput{
		Name:      "Meera",
		BirthDate: &birth,
		BirthTime: "21:15",
		Place:     "Jaipur",
		Latitude:  26.9124,
		Longitude: 75.7873,
	})
	require.NoError(t, err)

	require.Equal(t, "Meera", engine.lastDetails.Name)
	require.Equal(t, "2015-11-09", engine.lastDetails.Date)
	require.Equal(t, "Jaipur", engine.lastDetails.Place)
	require.InDelta(t, 26.9124, engine.lastDetails.Latitude, 0.0001)
}

func TestGenerateKundliUpstreamFailure(t *testing.T) {
	engine := &fakeChartEngine{err: errors.New("engine down")}
	svc, userID := newKundliFixture(t, engine)

	_, err := svc.Generate(context.Background(), userID, GenerateKundliInput{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrUpstreamUnavailable.Code, appErr.Code)

	// Nothing stored on failure.
	kundlis, listErr := svc.List(context.Background(), userID)
	require.NoError(t, listErr)
	require.Empty(t, kundlis)
}

func TestKundliListGetDelete(t *testing.T) {
	engine := &fakeChartEngine{chart: json.RawMessage(`{"ok":true}`)}
	svc, userID := newKundliFixture(t, engine)

	created, err := svc.Generate(context.Background(), userID, GenerateKundliInput{})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), userID, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.Get(context.Background(), "someone-else", created.ID)
	require.ErrorIs(t, err, ErrKundliNotFound)

	require.NoError(t, svc.Delete(context.Background(), userID, created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), userID, created.ID), ErrKundliNotFound)
}

func TestGenerateKundliMissingBirthDate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	users, err := NewUserService(db)
	require.NoError(t, err)
	user, err := users.Register(context.Background(), RegisterInput{
		Email:    "bare@example.com",
		Password: "pass-word",
	})
	require.NoError(t, err)

	svc, err := NewKundliService(db, &fakeChartEngine{chart: json.RawMessage(`{}`)})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), user.ID, GenerateKundliInput{})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.StatusCode)
}
