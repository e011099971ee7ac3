package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/database/testutil"
	"github.com/astromitra/astromitra/internal/models"
)

func newSessionFixture(t *testing.T, clock func() time.Time) (*SessionService, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	user := models.User{
		Email:    "mira@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "session-secret", Clock: clock})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, SessionConfig{Clock: clock})
	require.NoError(t, err)
	return svc, &user
}

func TestSessionServiceCreateAndRefresh(t *testing.T) {
	svc, user := newSessionFixture(t, nil)
	ctx := context.Background()

	pair, session, err := svc.CreateSession(ctx, user, SessionMetadata{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, user.ID, session.UserID)

	refreshed, rotated, err := svc.RefreshSession(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken, "refresh must rotate the token")
	require.Equal(t, session.ID, rotated.ID)

	// The old token is no longer usable.
	_, _, err = svc.RefreshSession(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionServiceRefreshExpired(t *testing.T) {
	current := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	svc, user := newSessionFixture(t, func() time.Time { return current })
	ctx := context.Background()

	pair, _, err := svc.CreateSession(ctx, user, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(31 * 24 * time.Hour)
	_, _, err = svc.RefreshSession(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionServiceRevoke(t *testing.T) {
	svc, user := newSessionFixture(t, nil)
	ctx := context.Background()

	pair, session, err := svc.CreateSession(ctx, user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(ctx, session.ID))
	_, _, err = svc.RefreshSession(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	// Revoking twice reports not found.
	require.ErrorIs(t, svc.RevokeSession(ctx, session.ID), ErrSessionNotFound)
}

func TestSessionServiceCleanupExpired(t *testing.T) {
	current := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	svc, user := newSessionFixture(t, func() time.Time { return current })
	ctx := context.Background()

	_, stale, err := svc.CreateSession(ctx, user, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, svc.RevokeSession(ctx, stale.ID))

	_, _, err = svc.CreateSession(ctx, user, SessionMetadata{})
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
