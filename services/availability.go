package services

import (
	"errors"
	"time"

	"travana-server/models"
	"travana-server/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DayAvailability is the authoritative per-day view of a listing's calendar.
// Clients never reconcile reservations and overrides themselves; this merges
// both sources server-side.
type DayAvailability struct {
	Date        time.Time `json:"date"`
	IsAvailable bool      `json:"isAvailable"`
	Price       float64   `json:"price"`
	Reserved    bool      `json:"reserved"`
	HasOverride bool      `json:"hasOverride"`
}

// EffectiveAvailability returns one entry per day in [start, end). Days
// without an override are implicitly available at the listing base price;
// days covered by a non-cancelled reservation or block report Reserved.
func EffectiveAvailability(listingID uint, start, end time.Time) ([]DayAvailability, error) {
	var listing models.Listing
	if err := storage.DB.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	var entries []models.AvailabilityEntry
	if err := storage.DB.Where("listing_id = ? AND date >= ? AND date < ?",
		listingID, Day(start), Day(end)).Find(&entries).Error; err != nil {
		return nil, err
	}

	var reservations []models.Reservation
	if err := storage.DB.Where(
		"listing_id = ? AND status <> ? AND start_date < ? AND end_date > ?",
		listingID, models.ReservationStatusCancelled, Day(end), Day(start),
	).Find(&reservations).Error; err != nil {
		return nil, err
	}

	return mergeEffective(listing.NightlyPrice, NightsIn(start, end), entries, reservations), nil
}

// mergeEffective folds overrides and reservations into per-day rows.
func mergeEffective(basePrice float64, days []time.Time, entries []models.AvailabilityEntry, reservations []models.Reservation) []DayAvailability {
	overrides := make(map[time.Time]models.AvailabilityEntry, len(entries))
	for _, e := range entries {
		overrides[Day(e.Date)] = e
	}

	result := make([]DayAvailability, 0, len(days))
	for _, day := range days {
		row := DayAvailability{Date: day, IsAvailable: true, Price: basePrice}

		if entry, ok := overrides[day]; ok {
			row.HasOverride = true
			row.IsAvailable = entry.IsAvailable
			if entry.CustomPrice != nil {
				row.Price = *entry.CustomPrice
			}
		}

		for _, res := range reservations {
			if Overlaps(day, day.AddDate(0, 0, 1), Day(res.StartDate), Day(res.EndDate)) {
				row.Reserved = true
				row.IsAvailable = false
				break
			}
		}

		result = append(result, row)
	}
	return result
}

// SetAvailability upserts the override for one (listing, date) pair.
func SetAvailability(listingID uint, date time.Time, isAvailable bool, customPrice *float64) (*models.AvailabilityEntry, error) {
	entry := models.AvailabilityEntry{
		ListingID:   listingID,
		Date:        Day(date),
		IsAvailable: isAvailable,
		CustomPrice: customPrice,
	}

	err := storage.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "custom_price", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetBulkAvailability applies the same upsert to every date in the half-open
// [start, end) range. Re-applying the same call produces the same end state.
func SetBulkAvailability(listingID uint, start, end time.Time, isAvailable bool) ([]models.AvailabilityEntry, error) {
	days := NightsIn(start, end)
	if len(days) == 0 {
		return nil, ErrInvalidRange
	}

	entries := make([]models.AvailabilityEntry, 0, len(days))
	for _, day := range days {
		entries = append(entries, models.AvailabilityEntry{
			ListingID:   listingID,
			Date:        day,
			IsAvailable: isAvailable,
		})
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "updated_at"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteAvailability drops the override for one date, reverting it to
// implicit availability at the base price.
func DeleteAvailability(listingID uint, date time.Time) error {
	res := storage.DB.Where("listing_id = ? AND date = ?", listingID, Day(date)).
		Delete(&models.AvailabilityEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
