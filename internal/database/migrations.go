package database

import (
	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/models"
	"github.com/astromitra/astromitra/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Address{},
		&models.Kundli{},
		&models.HoroscopeEntry{},
		&models.DeviceToken{},
		&models.CacheEntry{},
	)
}

// SeedData inserts bootstrap records. An initial admin account is created
// only when no users exist; credentials are expected to be rotated on
// first login.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := crypto.HashPassword(seedAdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    "admin@astromitra.local",
		Password: hash,
		IsAdmin:  true,
		IsActive: true,
	}
	return db.Create(&admin).Error
}

const seedAdminPassword = "changeme"
