package services

import (
	"errors"
	"testing"

	"travana-server/models"
	"travana-server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test a fresh in-memory database and points the
// global handle at it for the duration of the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.AvailabilityEntry{},
		&models.Reservation{},
	))

	prev := storage.DB
	storage.DB = db
	t.Cleanup(func() { storage.DB = prev })

	return db
}

func seedListing(t *testing.T, db *gorm.DB) models.Listing {
	t.Helper()

	listing := models.Listing{
		HostID:       1,
		Title:        "Beach House",
		MaxGuests:    4,
		NightlyPrice: 100,
	}
	require.NoError(t, db.Create(&listing).Error)
	return listing
}

func seedReservation(t *testing.T, db *gorm.DB, listingID uint, start, end string) models.Reservation {
	t.Helper()

	reservation := models.Reservation{
		ListingID:  listingID,
		StartDate:  date(start),
		EndDate:    date(end),
		GuestCount: 2,
		Status:     models.ReservationStatusConfirmed,
	}
	require.NoError(t, db.Create(&reservation).Error)
	return reservation
}

func TestCheckOverlapExcludesSelf(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)
	reservation := seedReservation(t, db, listing.ID, "2025-12-01", "2025-12-05")

	// Editing a reservation with unchanged dates must not collide with its
	// own prior row.
	err := checkOverlap(db, listing.ID, reservation.ID, date("2025-12-01"), date("2025-12-05"))
	assert.NoError(t, err)

	// The same range from anyone else does collide.
	err = checkOverlap(db, listing.ID, 0, date("2025-12-01"), date("2025-12-05"))
	var overlap *OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, date("2025-12-01"), overlap.Start)
	assert.Equal(t, date("2025-12-05"), overlap.End)
}

func TestCancelReservationFreesRange(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)
	reservation := seedReservation(t, db, listing.ID, "2025-12-01", "2025-12-05")

	cancelled, err := CancelReservation(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	// The cancelled range is bookable again.
	assert.NoError(t, checkOverlap(db, listing.ID, 0, date("2025-12-01"), date("2025-12-05")))
}

func TestDeleteReservationFreesRange(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)
	reservation := seedReservation(t, db, listing.ID, "2025-12-01", "2025-12-05")

	require.NoError(t, DeleteReservation(reservation.ID))
	assert.NoError(t, checkOverlap(db, listing.ID, 0, date("2025-12-01"), date("2025-12-05")))

	assert.ErrorIs(t, DeleteReservation(99999), ErrReservationNotFound)
}

func TestHasActiveReservations(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)
	now := date("2025-12-10")

	// A stay already checked out does not block deletion.
	seedReservation(t, db, listing.ID, "2025-12-01", "2025-12-05")
	active, err := hasActiveReservations(db, listing.ID, now)
	require.NoError(t, err)
	assert.False(t, active)

	// A future stay does.
	future := seedReservation(t, db, listing.ID, "2025-12-20", "2025-12-25")
	active, err = hasActiveReservations(db, listing.ID, now)
	require.NoError(t, err)
	assert.True(t, active)

	// Cancelling it unblocks deletion again.
	_, err = CancelReservation(future.ID)
	require.NoError(t, err)
	active, err = hasActiveReservations(db, listing.ID, now)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestValidateRequestCarriedGuestCount(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)

	user := models.User{FirstName: "Sara", LastName: "Guest", Email: "sara@example.com"}
	require.NoError(t, db.Create(&user).Error)
	userID := user.ID

	existing := models.Reservation{
		ListingID:  listing.ID,
		UserID:     &userID,
		StartDate:  date("2025-12-01"),
		EndDate:    date("2025-12-05"),
		GuestCount: 6,
		Status:     models.ReservationStatusConfirmed,
	}
	require.NoError(t, db.Create(&existing).Error)

	// A date-only edit carries the stored guest count forward, so the
	// capacity re-check still sees it.
	req := ReservationRequest{
		StartDate: date("2025-12-10"),
		EndDate:   date("2025-12-12"),
	}
	req.fillFromExisting(&existing)
	require.Equal(t, 6, req.GuestCount)

	err := validateRequest(db, &listing, &req)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	listing.MaxGuests = 8
	assert.NoError(t, validateRequest(db, &listing, &req))
}

func TestQuoteRangeUsesStoredOverrides(t *testing.T) {
	db := openTestDB(t)
	listing := seedListing(t, db)

	price := 150.0
	require.NoError(t, db.Create(&models.AvailabilityEntry{
		ListingID:   listing.ID,
		Date:        date("2025-12-02"),
		IsAvailable: true,
		CustomPrice: &price,
	}).Error)

	quote, err := quoteRange(db, &listing, date("2025-12-01"), date("2025-12-04"))
	require.NoError(t, err)
	assert.InDelta(t, 350, quote.Subtotal, 1e-9)
	assert.InDelta(t, 392, quote.Total, 1e-9)
}
