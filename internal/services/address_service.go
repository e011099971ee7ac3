package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/models"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

// ErrAddressNotFound indicates the address does not exist or belongs to another user.
var ErrAddressNotFound = apperrors.New("ADDRESS_NOT_FOUND", "Address not found", http.StatusNotFound)

// AddressInput carries the fields for creating or replacing an address.
type AddressInput struct {
	Label      string
	Name       string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// AddressService manages the address book attached to each user, keeping
// at most one default address per user.
type AddressService struct {
	db *gorm.DB
}

// NewAddressService constructs an AddressService instance.
func NewAddressService(db *gorm.DB) (*AddressService, error) {
	if db == nil {
		return nil, errors.New("address service: db is required")
	}
	return &AddressService{db: db}, nil
}

// List returns all addresses for a user, default address first.
func (s *AddressService) List(ctx context.Context, userID string) ([]models.Address, error) {
	ctx = ensureContext(ctx)

	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("address service: list: %w", err)
	}
	return addresses, nil
}

// Create stores a new address. The first address for a user always
// becomes the default.
func (s *AddressService) Create(ctx context.Context, userID string, input AddressInput) (*models.Address, error) {
	ctx = ensureContext(ctx)

	if err := validateAddress(input); err != nil {
		return nil, err
	}

	address := buildAddress(userID, input)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}

		if address.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	if err != nil {
		return nil, fmt.Errorf("address service: create: %w", err)
	}
	return address, nil
}

// Update replaces the mutable fields of an address owned by the user.
func (s *AddressService) Update(ctx context.Context, userID, addressID string, input AddressInput) (*models.Address, error) {
	ctx = ensureContext(ctx)

	if err := validateAddress(input); err != nil {
		return nil, err
	}

	var address models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			return err
		}

		if input.IsDefault && !address.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}

		updated := buildAddress(userID, input)
		updated.ID = address.ID
		updated.CreatedAt = address.CreatedAt
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		address = *updated
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("address service: update: %w", err)
	}
	return &address, nil
}

// SetDefault marks the given address as the user's default.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			return err
		}
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		return tx.Model(&address).Update("is_default", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return fmt.Errorf("address service: set default: %w", err)
	}
	return nil
}

// Delete removes an address. When the default address is removed the
// oldest remaining one takes its place.
func (s *AddressService) Delete(ctx context.Context, userID, addressID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			return err
		}
		if err := tx.Delete(&address).Error; err != nil {
			return err
		}

		if address.IsDefault {
			var next models.Address
			err := tx.Where("user_id = ?", userID).Order("created_at ASC").First(&next).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return tx.Model(&next).Update("is_default", true).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return fmt.Errorf("address service: delete: %w", err)
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID string) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func validateAddress(input AddressInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return apperrors.NewBadRequest("recipient name is required")
	case strings.TrimSpace(input.Phone) == "":
		return apperrors.NewBadRequest("phone is required")
	case strings.TrimSpace(input.Line1) == "":
		return apperrors.NewBadRequest("address line is required")
	case strings.TrimSpace(input.City) == "":
		return apperrors.NewBadRequest("city is required")
	case strings.TrimSpace(input.State) == "":
		return apperrors.NewBadRequest("state is required")
	case strings.TrimSpace(input.PostalCode) == "":
		return apperrors.NewBadRequest("postal code is required")
	}
	return nil
}

func buildAddress(userID string, input AddressInput) *models.Address {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = "home"
	}
	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = "India"
	}

	return &models.Address{
		UserID:     userID,
		Label:      label,
		Name:       strings.TrimSpace(input.Name),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    country,
		IsDefault:  input.IsDefault,
	}
}
