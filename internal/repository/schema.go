package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Models lists every GORM model for development auto-migration.
func Models() []interface{} {
	return []interface{}{
		&LocationModel{},
		&CarModel{},
		&UserModel{},
		&OTPModel{},
		&BookingModel{},
		&BookingStatusEventModel{},
		&ReviewModel{},
		&NotificationModel{},
	}
}

// AutoMigrate creates the tables from the models and adds the booking
// exclusion constraint, which GORM tags cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("failed to enable btree_gist: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	err := db.Exec(`DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'excl_bookings_car_window') THEN
        ALTER TABLE bookings ADD CONSTRAINT excl_bookings_car_window
            EXCLUDE USING gist (car_id WITH =, tstzrange(pickup_at, dropoff_at, '[)') WITH &&)
            WHERE (status NOT IN ('CANCELED', 'SERVICEPROVIDED', 'SERVICEFINISHED'));
    END IF;
END $$`).Error
	if err != nil {
		return fmt.Errorf("failed to add booking exclusion constraint: %w", err)
	}
	return nil
}
