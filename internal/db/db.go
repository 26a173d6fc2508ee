package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ruralstay-backend/config"
	"ruralstay-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Property{},
		&model.AvailabilityDay{},
		&model.Booking{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		log.Println("Applying booking exclusion constraint DDL...")
		if err := applyExclusionDDL(db); err != nil {
			return nil, err
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyExclusionDDL pushes the no-double-booking invariant into the
// schema: for one property, the night ranges of pending and confirmed
// bookings must not intersect. Ranges are half-open ('[)'), so a
// checkout day may equal the next check-in day.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_range_valid;",
		"ALTER TABLE bookings " +
			"ADD CONSTRAINT bookings_range_valid CHECK (check_in < check_out);",

		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap;",
		"ALTER TABLE bookings " +
			"ADD CONSTRAINT bookings_no_overlap EXCLUDE USING GIST " +
			"(property_id WITH =, daterange(check_in, check_out, '[)') WITH &&) " +
			"WHERE (status IN ('pending', 'confirmed'));",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
