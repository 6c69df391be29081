package database

import (
	"fmt"

	"github.com/shipit/shipit-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	if err := db.AutoMigrate(
		&models.User{},
		&models.Parcel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Older deployments stored checksummed addresses
	statements := []string{
		`UPDATE users SET wallet_address = LOWER(wallet_address) WHERE wallet_address <> LOWER(wallet_address)`,
		`UPDATE parcels SET sender_address = LOWER(sender_address) WHERE sender_address <> LOWER(sender_address)`,
		`UPDATE parcels SET driver_address = LOWER(driver_address) WHERE driver_address <> LOWER(driver_address)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	// The legacy users collection kept the role under default_role
	var columnExists bool
	err := db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_name = 'users'
			AND column_name = 'default_role'
		)`).Scan(&columnExists).Error
	if err != nil {
		return err
	}

	if columnExists {
		if err := db.Exec(`UPDATE users SET role = default_role WHERE default_role IN ('sender', 'driver')`).Error; err != nil {
			return err
		}
		if err := db.Exec(`ALTER TABLE users DROP COLUMN default_role`).Error; err != nil {
			return err
		}
	}

	db.Exec(`ALTER TABLE parcels DROP CONSTRAINT IF EXISTS parcels_status_check`)
	db.Exec(`ALTER TABLE parcels ADD CONSTRAINT parcels_status_check CHECK (status IN ('pending', 'accepted', 'in-transit', 'delivered', 'cancelled'))`)

	return nil
}
