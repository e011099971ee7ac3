package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/astromitra/astromitra/internal/models"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

// DeviceTokenService tracks FCM registration tokens per user so
// notifications can be fanned out.
type DeviceTokenService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewDeviceTokenService constructs a DeviceTokenService instance.
func NewDeviceTokenService(db *gorm.DB) (*DeviceTokenService, error) {
	if db == nil {
		return nil, errors.New("device token service: db is required")
	}
	return &DeviceTokenService{db: db, clock: time.Now}, nil
}

// Register upserts a device token. A token re-registered by a different
// user moves to the new owner.
func (s *DeviceTokenService) Register(ctx context.Context, userID, token, platform string) (*models.DeviceToken, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("device token is required")
	}

	record := &models.DeviceToken{
		UserID:     userID,
		Token:      token,
		Platform:   strings.ToLower(strings.TrimSpace(platform)),
		LastSeenAt: s.clock(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "platform", "last_seen_at", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return nil, fmt.Errorf("device token service: register: %w", err)
	}
	return record, nil
}

// Unregister removes a token owned by the user.
func (s *DeviceTokenService) Unregister(ctx context.Context, userID, token string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, strings.TrimSpace(token)).
		Delete(&models.DeviceToken{})
	if result.Error != nil {
		return fmt.Errorf("device token service: unregister: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// TokensForUser returns the registration tokens for one user.
func (s *DeviceTokenService) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("device token service: tokens for user: %w", err)
	}
	return normaliseTokens(tokens), nil
}

// AllTokens returns every registered token, used for broadcast pushes.
func (s *DeviceTokenService) AllTokens(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)

	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("device token service: all tokens: %w", err)
	}
	return normaliseTokens(tokens), nil
}

// PruneStale removes tokens not seen for the given duration.
func (s *DeviceTokenService) PruneStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.clock().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Where("last_seen_at < ?", cutoff).
		Delete(&models.DeviceToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("device token service: prune: %w", result.Error)
	}
	return result.RowsAffected, nil
}
