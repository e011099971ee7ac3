package horoscope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/astromitra/astromitra/internal/models"
)

// Store persists horoscope cache rows keyed by (sign, period, period_key).
type Store interface {
	// FindActive returns the active entry for the key, or nil when no
	// active entry exists.
	FindActive(ctx context.Context, sign Sign, period Period, periodKey string) (*models.HoroscopeEntry, error)

	// Upsert writes the entry, replacing any existing row with the same
	// natural key. The entry's content fields, GeneratedAt, ValidUntil and
	// IsActive overwrite the stored row on conflict.
	Upsert(ctx context.Context, entry *models.HoroscopeEntry) error

	// DeactivateAll marks every active row for the sign+period inactive,
	// across all period keys, and reports how many rows changed.
	DeactivateAll(ctx context.Context, sign Sign, period Period) (int64, error)

	// DeleteExpired physically removes rows whose ValidUntil is before the
	// given instant, active or not.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// Stats aggregates row counts per period for the admin surface.
	Stats(ctx context.Context, now time.Time) ([]PeriodStats, error)
}

// PeriodStats summarises cache occupancy for one period.
type PeriodStats struct {
	Period  Period `json:"period"`
	Total   int64  `json:"total"`
	Active  int64  `json:"active"`
	Expired int64  `json:"expired"`
}

// GormStore is the database-backed Store implementation.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("horoscope store: db is required")
	}
	return &GormStore{db: db}, nil
}

// FindActive implements Store.
func (s *GormStore) FindActive(ctx context.Context, sign Sign, period Period, periodKey string) (*models.HoroscopeEntry, error) {
	var entry models.HoroscopeEntry
	err := s.db.WithContext(ctx).
		Where("sign = ? AND period = ? AND period_key = ? AND is_active = ?", string(sign), string(period), periodKey, true).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("horoscope store: find active: %w", err)
	}
	return &entry, nil
}

// Upsert implements Store using a unique-constraint merge on the natural
// key, so concurrent writers for the same key converge on one row.
func (s *GormStore) Upsert(ctx context.Context, entry *models.HoroscopeEntry) error {
	if entry == nil {
		return errors.New("horoscope store: entry is required")
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sign"}, {Name: "period"}, {Name: "period_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"raw_content", "enriched_narrative", "generated_at", "valid_until", "is_active", "updated_at",
			}),
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("horoscope store: upsert: %w", err)
	}

	// On a conflict merge the persisted row keeps its original ID and
	// timestamps; reload so callers see the stored row, not the draft.
	// Loaded into a fresh value because First would otherwise add the
	// draft's primary key to the query conditions.
	var stored models.HoroscopeEntry
	err = s.db.WithContext(ctx).
		Where("sign = ? AND period = ? AND period_key = ?", entry.Sign, entry.Period, entry.PeriodKey).
		First(&stored).Error
	if err != nil {
		return fmt.Errorf("horoscope store: upsert reload: %w", err)
	}
	*entry = stored
	return nil
}

// DeactivateAll implements Store.
func (s *GormStore) DeactivateAll(ctx context.Context, sign Sign, period Period) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.HoroscopeEntry{}).
		Where("sign = ? AND period = ? AND is_active = ?", string(sign), string(period), true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("horoscope store: deactivate: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired implements Store.
func (s *GormStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("valid_until < ?", before).
		Delete(&models.HoroscopeEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("horoscope store: delete expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Stats implements Store.
func (s *GormStore) Stats(ctx context.Context, now time.Time) ([]PeriodStats, error) {
	stats := make([]PeriodStats, 0, len(Periods()))

	for _, period := range Periods() {
		var entry PeriodStats
		entry.Period = period

		model := func() *gorm.DB {
			return s.db.WithContext(ctx).Model(&models.HoroscopeEntry{}).Where("period = ?", string(period))
		}

		if err := model().Count(&entry.Total).Error; err != nil {
			return nil, fmt.Errorf("horoscope store: stats: %w", err)
		}
		if err := model().Where("is_active = ?", true).Count(&entry.Active).Error; err != nil {
			return nil, fmt.Errorf("horoscope store: stats: %w", err)
		}
		if err := model().Where("valid_until < ?", now).Count(&entry.Expired).Error; err != nil {
			return nil, fmt.Errorf("horoscope store: stats: %w", err)
		}

		stats = append(stats, entry)
	}

	return stats, nil
}
