package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/models"
	"github.com/astromitra/astromitra/pkg/crypto"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = apperrors.New("USER_EMAIL_TAKEN", "Email is already registered", http.StatusConflict)
	// ErrAccountLocked indicates too many failed sign-in attempts.
	ErrAccountLocked = apperrors.New("USER_LOCKED", "Account temporarily locked, try again later", http.StatusForbidden)
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

// RegisterInput describes the fields accepted when creating an account.
type RegisterInput struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
	Gender    string

	BirthDate      *time.Time
	BirthTime      string
	BirthPlace     string
	BirthLatitude  float64
	BirthLongitude float64
}

// UpdateProfileInput enumerates mutable profile attributes. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Gender    *string
	Avatar    *string

	BirthDate      *time.Time
	BirthTime      *string
	BirthPlace     *string
	BirthLatitude  *float64
	BirthLongitude *float64
}

// UserService manages account lifecycle: registration, credential checks
// with lockout, and profile updates.
type UserService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, clock: time.Now}, nil
}

// Register provisions a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		Phone:          strings.TrimSpace(input.Phone),
		Password:       hashed,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Gender:         strings.TrimSpace(input.Gender),
		BirthDate:      input.BirthDate,
		BirthTime:      strings.TrimSpace(input.BirthTime),
		BirthPlace:     strings.TrimSpace(input.BirthPlace),
		BirthLatitude:  input.BirthLatitude,
		BirthLongitude: input.BirthLongitude,
		IsActive:       true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies credentials and enforces the failed-attempt
// lockout. The caller records the session.
func (s *UserService) Authenticate(ctx context.Context, email, password, clientIP string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: lookup user: %w", err)
	}

	now := s.clock()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountLocked
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrForbidden
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if err := s.recordFailure(ctx, &user, now); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	updates := map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   clientIP,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = clientIP
	return &user, nil
}

func (s *UserService) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	attempts := user.FailedAttempts + 1
	updates := map[string]any{"failed_attempts": attempts}
	if attempts >= maxFailedAttempts {
		lockedUntil := now.Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
		updates["failed_attempts"] = 0
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("user service: record failed attempt: %w", err)
	}
	return nil
}

// GetByID loads a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the provided partial update to a user profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Gender != nil {
		updates["gender"] = strings.TrimSpace(*input.Gender)
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if input.BirthDate != nil {
		updates["birth_date"] = *input.BirthDate
	}
	if input.BirthTime != nil {
		updates["birth_time"] = strings.TrimSpace(*input.BirthTime)
	}
	if input.BirthPlace != nil {
		updates["birth_place"] = strings.TrimSpace(*input.BirthPlace)
	}
	if input.BirthLatitude != nil {
		updates["birth_latitude"] = *input.BirthLatitude
	}
	if input.BirthLongitude != nil {
		updates["birth_longitude"] = *input.BirthLongitude
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetByID(ctx, id)
}

// ChangePassword verifies the current password and replaces it.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, current) {
		return apperrors.ErrInvalidCredentials
	}
	if strings.TrimSpace(next) == "" {
		return apperrors.NewBadRequest("new password is required")
	}

	hashed, err := crypto.HashPassword(next)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}
