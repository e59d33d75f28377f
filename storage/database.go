package storage

import (
	"log"
	"os"

	"travana-server/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.City{},
		&models.Category{},
		&models.Facility{},
		&models.Listing{},
		&models.AvailabilityEntry{},
		&models.Reservation{},
		&models.BlogCategory{},
		&models.BlogPost{},
		&models.BlogComment{},
		&models.BlogLike{},
		&models.Notification{},
		&models.AuditLog{},
	)

	// Overlapping reservations must be rejected at the database level as
	// well: two concurrent bookings racing past the application check are
	// stopped by this exclusion constraint. daterange is half-open [) by
	// default, matching the checkout-day convention.
	db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist;")
	db.Exec(`DO $$ BEGIN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (
				listing_id WITH =,
				daterange(start_date::date, end_date::date) WITH &&
			) WHERE (status <> 'cancelled' AND deleted_at IS NULL);
	EXCEPTION WHEN duplicate_table OR duplicate_object THEN NULL; END $$;`)
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
