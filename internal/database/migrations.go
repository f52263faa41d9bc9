package database

import (
	"os"

	"github.com/fleetrent/fleetrent-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Booking{},
	)
	if err != nil {
		return err
	}

	// Enum-style constraints on top of the text columns
	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		if err := db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('admin', 'owner', 'customer'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.Vehicle{}) {
		db.Exec(`ALTER TABLE vehicles DROP CONSTRAINT IF EXISTS vehicles_availability_check`)
		if err := db.Exec(`ALTER TABLE vehicles ADD CONSTRAINT vehicles_availability_check CHECK (availability IN ('available', 'booked'))`).Error; err != nil {
			return err
		}
	}

	return SeedAdmin(db)
}

// SeedAdmin creates the single administrator account on first run. Admin is
// never self-registerable, so this is the only path that writes role=admin.
func SeedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	admin := models.User{
		Username: "admin",
		Role:     models.RoleAdmin,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}

	return db.Create(&admin).Error
}
