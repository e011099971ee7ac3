package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/database/testutil"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

func newDeviceFixture(t *testing.T) (*DeviceTokenService, string, string) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db)
	require.NoError(t, err)
	first, err := users.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "pass-word"})
	require.NoError(t, err)
	second, err := users.Register(context.Background(), RegisterInput{Email: "b@example.com", Password: "pass-word"})
	require.NoError(t, err)

	svc, err := NewDeviceTokenService(db)
	require.NoError(t, err)
	return svc, first.ID, second.ID
}

func TestRegisterTokenIdempotent(t *testing.T) {
	svc, userID, _ := newDeviceFixture(t)

	_, err := svc.Register(context.Background(), userID, "tok-1", "android")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), userID, "tok-1", "android")
	require.NoError(t, err)

	tokens, err := svc.TokensForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, []string{"tok-1"}, tokens)
}

func TestTokenMovesBetweenUsers(t *testing.T) {
	svc, first, second := newDeviceFixture(t)

	_, err := svc.Register(context.Background(), first, "shared-tok", "ios")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), second, "shared-tok", "ios")
	require.NoError(t, err)

	firstTokens, err := svc.TokensForUser(context.Background(), first)
	require.NoError(t, err)
	require.Empty(t, firstTokens)

	secondTokens, err := svc.TokensForUser(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, []string{"shared-tok"}, secondTokens)
}

func TestUnregisterToken(t *testing.T) {
	svc, userID, other := newDeviceFixture(t)

	_, err := svc.Register(context.Background(), userID, "tok-1", "android")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Unregister(context.Background(), other, "tok-1"), apperrors.ErrNotFound)
	require.NoError(t, svc.Unregister(context.Background(), userID, "tok-1"))

	all, err := svc.AllTokens(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPruneStaleTokens(t *testing.T) {
	svc, userID, _ := newDeviceFixture(t)

	svc.clock = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	_, err := svc.Register(context.Background(), userID, "old-tok", "android")
	require.NoError(t, err)

	svc.clock = time.Now
	_, err = svc.Register(context.Background(), userID, "fresh-tok", "android")
	require.NoError(t, err)

	removed, err := svc.PruneStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	tokens, err := svc.TokensForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh-tok"}, tokens)
}
