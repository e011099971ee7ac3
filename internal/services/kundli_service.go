package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/astro"
	"github.com/astromitra/astromitra/internal/models"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

// ErrKundliNotFound indicates the kundli does not exist or belongs to another user.
var ErrKundliNotFound = apperrors.New("KUNDLI_NOT_FOUND", "Kundli not found", http.StatusNotFound)

// ChartEngine computes a birth chart from birth details.
type ChartEngine interface {
	Kundli(ctx context.Context, details astro.BirthDetails) (json.RawMessage, error)
}

// GenerateKundliInput carries the birth details for a kundli request.
// Empty fields fall back to the owner's stored birth details.
type GenerateKundliInput struct {
	Name      string
	Gender    string
	BirthDate *time.Time
	BirthTime string
	Place     string
	Latitude  float64
	Longitude float64
	Timezone  float64
}

// KundliService generates birth charts through the astrology engine and
// persists them for later retrieval.
type KundliService struct {
	db     *gorm.DB
	engine ChartEngine
}

// NewKundliService constructs a KundliService instance.
func NewKundliService(db *gorm.DB, engine ChartEngine) (*KundliService, error) {
	if db == nil {
		return nil, errors.New("kundli service: db is required")
	}
	if engine == nil {
		return nil, errors.New("kundli service: chart engine is required")
	}
	return &KundliService{db: db, engine: engine}, nil
}

// Generate computes a chart for the given birth details and stores it
// under the requesting user.
func (s *KundliService) Generate(ctx context.Context, userID string, input GenerateKundliInput) (*models.Kundli, error) {
	ctx = ensureContext(ctx)

	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("kundli service: load owner: %w", err)
	}

	details, err := resolveBirthDetails(&owner, input)
	if err != nil {
		return nil, err
	}

	chart, err := s.engine.Kundli(ctx, details)
	if err != nil {
		return nil, apperrors.ErrUpstreamUnavailable.WithInternal(err)
	}

	birthDate, err := time.Parse("2006-01-02", details.Date)
	if err != nil {
		return nil, apperrors.NewBadRequest("birth date must be YYYY-MM-DD")
	}

	kundli := &models.Kundli{
		UserID:    userID,
		Name:      details.Name,
		Gender:    details.Gender,
		BirthDate: birthDate,
		BirthTime: details.Time,
		Place:     details.Place,
		Latitude:  details.Latitude,
		Longitude: details.Longitude,
		Timezone:  details.Timezone,
		Chart:     datatypes.JSON(chart),
	}

	if err := s.db.WithContext(ctx).Create(kundli).Error; err != nil {
		return nil, fmt.Errorf("kundli service: store kundli: %w", err)
	}
	return kundli, nil
}

// List returns the user's kundlis, newest first.
func (s *KundliService) List(ctx context.Context, userID string) ([]models.Kundli, error) {
	ctx = ensureContext(ctx)

	var kundlis []models.Kundli
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&kundlis).Error
	if err != nil {
		return nil, fmt.Errorf("kundli service: list: %w", err)
	}
	return kundlis, nil
}

// Get loads one kundli owned by the user.
func (s *KundliService) Get(ctx context.Context, userID, kundliID string) (*models.Kundli, error) {
	ctx = ensureContext(ctx)

	var kundli models.Kundli
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", kundliID, userID).
		First(&kundli).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKundliNotFound
		}
		return nil, fmt.Errorf("kundli service: get: %w", err)
	}
	return &kundli, nil
}

// Delete removes a stored kundli owned by the user.
func (s *KundliService) Delete(ctx context.Context, userID, kundliID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", kundliID, userID).
		Delete(&models.Kundli{})
	if result.Error != nil {
		return fmt.Errorf("kundli service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrKundliNotFound
	}
	return nil
}

// resolveBirthDetails merges the request with the owner's stored birth
// details so returning users do not have to retype them.
func resolveBirthDetails(owner *models.User, input GenerateKundliInput) (astro.BirthDetails, error) {
	details := astro.BirthDetails{
		Name:      strings.TrimSpace(input.Name),
		Gender:    strings.TrimSpace(input.Gender),
		Time:      strings.TrimSpace(input.BirthTime),
		Place:     strings.TrimSpace(input.Place),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Timezone:  input.Timezone,
	}

	if details.Name == "" {
		details.Name = strings.TrimSpace(owner.FirstName + " " + owner.LastName)
	}
	if details.Gender == "" {
		details.Gender = owner.Gender
	}

	birthDate := input.BirthDate
	if birthDate == nil {
		birthDate = owner.BirthDate
	}
	if birthDate == nil {
		return astro.BirthDetails{}, apperrors.NewBadRequest("birth date is required")
	}
	details.Date = birthDate.Format("2006-01-02")

	if details.Time == "" {
		details.Time = owner.BirthTime
	}
	if details.Time == "" {
		return astro.BirthDetails{}, apperrors.NewBadRequest("birth time is required")
	}

	if details.Place == "" {
		details.Place = owner.BirthPlace
		details.Latitude = owner.BirthLatitude
		details.Longitude = owner.BirthLongitude
	}
	if details.Place == "" {
		return astro.BirthDetails{}, apperrors.NewBadRequest("birth place is required")
	}

	if details.Timezone == 0 {
		// Most of the platform's users are in India.
		details.Timezone = 5.5
	}

	return details, nil
}
