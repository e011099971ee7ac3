package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Config{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=1"})
	require.NoError(t, err)
	return db
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.User{},
		&models.Session{},
		&models.Address{},
		&models.Kundli{},
		&models.HoroscopeEntry{},
		&models.DeviceToken{},
		&models.CacheEntry{},
	}

	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}

	require.True(t, migrator.HasIndex(&models.HoroscopeEntry{}, "idx_horoscope_nk"))
}

func TestSeedDataCreatesAdminOnce(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, SeedData(db))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@astromitra.local").First(&admin).Error)
	require.True(t, admin.IsAdmin)

	// Second run is a no-op.
	require.NoError(t, SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSeedDataSkipsWhenUsersExist(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.User{
		Email:    "existing@example.com",
		Password: "hash",
		IsActive: true,
	}).Error)

	require.NoError(t, SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "admin@astromitra.local").Count(&count).Error)
	require.Zero(t, count)
}
