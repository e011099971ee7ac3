package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes a platform account together with the birth details used
// for kundli generation.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string `gorm:"index" json:"phone"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `gorm:"type:varchar(16)" json:"gender"`
	Avatar    string `json:"avatar"`

	// Default birth details, copied into new kundlis unless overridden.
	BirthDate      *time.Time `json:"birth_date"`
	BirthTime      string     `gorm:"type:varchar(8)" json:"birth_time"`
	BirthPlace     string     `json:"birth_place"`
	BirthLatitude  float64    `json:"birth_latitude"`
	BirthLongitude float64    `json:"birth_longitude"`

	IsAdmin  bool `gorm:"default:false" json:"is_admin"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	Addresses    []Address     `gorm:"foreignKey:UserID" json:"addresses,omitempty"`
	Kundlis      []Kundli      `gorm:"foreignKey:UserID" json:"-"`
	Sessions     []Session     `gorm:"foreignKey:UserID" json:"-"`
	DeviceTokens []DeviceToken `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"last_login_ip"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
