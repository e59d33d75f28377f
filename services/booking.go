package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"travana-server/models"
	"travana-server/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for the reservation engine. Routes translate these into
// stable machine-readable codes, one per failure reason.
var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidRange        = errors.New("start date must be strictly before end date")
	ErrMissingUser         = errors.New("a non-blocked reservation requires an existing user")
	ErrCapacityExceeded    = errors.New("guest count exceeds the listing capacity")
	ErrActiveReservations  = errors.New("listing has active reservations")
)

// OverlapError reports a conflict with an existing reservation or block,
// identifying the colliding range.
type OverlapError struct {
	Start time.Time
	End   time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("dates conflict with an existing reservation from %s to %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// UnavailableDateError reports a date in the requested range that the
// calendar explicitly marks unavailable.
type UnavailableDateError struct {
	Date time.Time
}

func (e *UnavailableDateError) Error() string {
	return fmt.Sprintf("date %s is marked unavailable", e.Date.Format("2006-01-02"))
}

// ReservationRequest carries everything needed to create or update a
// reservation or block.
type ReservationRequest struct {
	ListingID  uint
	UserID     *uint
	StartDate  time.Time
	EndDate    time.Time
	GuestCount int
	ClientType string
	Details    string
	IsBlocked  bool
}

// fillFromExisting carries over every field a partial edit omits, so a
// date-only update never clears the stored guest count or booking details.
// Zero values mean "unchanged".
func (r *ReservationRequest) fillFromExisting(existing *models.Reservation) {
	r.ListingID = existing.ListingID
	r.IsBlocked = existing.IsBlocked
	if r.UserID == nil {
		r.UserID = existing.UserID
	}
	if r.GuestCount == 0 {
		r.GuestCount = existing.GuestCount
	}
	if r.ClientType == "" {
		r.ClientType = existing.ClientType
	}
	if r.Details == "" {
		r.Details = existing.Details
	}
}

// PriceQuote is the computed breakdown persisted with a reservation.
type PriceQuote struct {
	Nights     int     `json:"nights"`
	Subtotal   float64 `json:"subtotal"`
	ServiceFee float64 `json:"serviceFee"`
	Total      float64 `json:"total"`
}

// Day truncates a timestamp to UTC midnight. All calendar arithmetic works
// on these normalized values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", ErrInvalidRange, s)
	}
	return t, nil
}

// ParseDateRange parses and validates a half-open [start, end) range.
func ParseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not conflict: a checkout
// day is free for the next check-in.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// NightsIn returns every occupied night in [start, end), one entry per
// calendar day. The end date itself is the checkout day and is excluded.
func NightsIn(start, end time.Time) []time.Time {
	var nights []time.Time
	for d := Day(start); d.Before(Day(end)); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// ServiceFeeRate returns the configured service-fee percentage (default 12).
func ServiceFeeRate() float64 {
	if v := os.Getenv("SERVICE_FEE_PERCENT"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 {
			return rate
		}
	}
	return 12
}

// QuoteStay prices a stay. Each night costs the calendar override's custom
// price when one exists and is available, otherwise the listing base price.
// A night explicitly marked unavailable rejects the whole stay.
func QuoteStay(basePrice float64, nights []time.Time, overrides map[time.Time]models.AvailabilityEntry) (PriceQuote, error) {
	var subtotal float64
	for _, night := range nights {
		entry, ok := overrides[night]
		if !ok {
			subtotal += basePrice
			continue
		}
		if !entry.IsAvailable {
			return PriceQuote{}, &UnavailableDateError{Date: night}
		}
		if entry.CustomPrice != nil {
			subtotal += *entry.CustomPrice
		} else {
			subtotal += basePrice
		}
	}

	fee := subtotal * ServiceFeeRate() / 100
	return PriceQuote{
		Nights:     len(nights),
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      subtotal + fee,
	}, nil
}

// CreateReservation validates and persists a booking or block. The whole
// check-then-insert sequence runs inside one transaction holding a row lock
// on the listing, so two concurrent requests for the same listing serialize;
// the reservations_no_overlap exclusion constraint backstops anything that
// still races past.
func CreateReservation(req ReservationRequest) (*models.Reservation, error) {
	var reservation models.Reservation

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		listing, err := lockListing(tx, req.ListingID)
		if err != nil {
			return err
		}

		if err := validateRequest(tx, listing, &req); err != nil {
			return err
		}

		if err := checkOverlap(tx, req.ListingID, 0, req.StartDate, req.EndDate); err != nil {
			return err
		}

		quote, err := quoteRange(tx, listing, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}

		reservation = models.Reservation{
			ListingID:  req.ListingID,
			UserID:     req.UserID,
			StartDate:  Day(req.StartDate),
			EndDate:    Day(req.EndDate),
			GuestCount: req.GuestCount,
			ClientType: req.ClientType,
			Details:    req.Details,
			Subtotal:   quote.Subtotal,
			ServiceFee: quote.ServiceFee,
			Total:      quote.Total,
			IsBlocked:  req.IsBlocked,
			Status:     models.ReservationStatusConfirmed,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return translateDBError(err, req.StartDate, req.EndDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateReservation re-runs the full validation sequence for new dates or
// guest counts, excluding the reservation's own prior state from the
// overlap check.
func UpdateReservation(id uint, req ReservationRequest) (*models.Reservation, error) {
	var reservation models.Reservation

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		req.fillFromExisting(&reservation)

		listing, err := lockListing(tx, req.ListingID)
		if err != nil {
			return err
		}

		if err := validateRequest(tx, listing, &req); err != nil {
			return err
		}

		if err := checkOverlap(tx, req.ListingID, reservation.ID, req.StartDate, req.EndDate); err != nil {
			return err
		}

		quote, err := quoteRange(tx, listing, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}

		reservation.StartDate = Day(req.StartDate)
		reservation.EndDate = Day(req.EndDate)
		reservation.GuestCount = req.GuestCount
		reservation.ClientType = req.ClientType
		reservation.Details = req.Details
		reservation.Subtotal = quote.Subtotal
		reservation.ServiceFee = quote.ServiceFee
		reservation.Total = quote.Total

		if err := tx.Save(&reservation).Error; err != nil {
			return translateDBError(err, req.StartDate, req.EndDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation marks a reservation cancelled, releasing its range for
// future bookings.
func CancelReservation(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := storage.DB.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	reservation.Status = models.ReservationStatusCancelled
	if err := storage.DB.Save(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// DeleteReservation removes a reservation, freeing its date range. No side
// effects beyond referential cleanup.
func DeleteReservation(id uint) error {
	res := storage.DB.Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// DeleteListing soft-deletes a listing and its calendar overrides. The
// active-reservation guard and the delete run in one transaction holding the
// listing row lock, so a booking racing in on another connection serializes
// against it instead of slipping past the check.
func DeleteListing(id uint) error {
	return storage.DB.Transaction(func(tx *gorm.DB) error {
		listing, err := lockListing(tx, id)
		if err != nil {
			return err
		}

		active, err := hasActiveReservations(tx, listing.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if active {
			return ErrActiveReservations
		}

		if err := tx.Where("listing_id = ?", listing.ID).
			Delete(&models.AvailabilityEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(listing).Error
	})
}

// hasActiveReservations reports whether any non-cancelled reservation or
// block on the listing still ends in the future.
func hasActiveReservations(tx *gorm.DB, listingID uint, now time.Time) (bool, error) {
	var count int64
	err := tx.Model(&models.Reservation{}).
		Where("listing_id = ? AND status <> ? AND end_date > ?",
			listingID, models.ReservationStatusCancelled, now).
		Count(&count).Error
	return count > 0, err
}

func lockListing(tx *gorm.DB, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, listingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// validateRequest applies the fail-fast sequence: range, user, capacity.
// The listing has already been resolved (and locked) by the caller.
func validateRequest(tx *gorm.DB, listing *models.Listing, req *ReservationRequest) error {
	if !req.StartDate.Before(req.EndDate) {
		return ErrInvalidRange
	}

	if !req.IsBlocked {
		if req.UserID == nil {
			return ErrMissingUser
		}
		var user models.User
		if err := tx.Select("id").First(&user, *req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMissingUser
			}
			return err
		}
	}

	if req.GuestCount > 0 && req.GuestCount > listing.MaxGuests {
		return ErrCapacityExceeded
	}
	return nil
}

// checkOverlap queries for any non-cancelled reservation or block on the
// listing intersecting [start, end), excluding excludeID on edits. Two
// half-open ranges intersect iff a < d AND c < b.
func checkOverlap(tx *gorm.DB, listingID, excludeID uint, start, end time.Time) error {
	query := tx.Where(
		"listing_id = ? AND status <> ? AND start_date < ? AND end_date > ?",
		listingID, models.ReservationStatusCancelled, Day(end), Day(start),
	)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var conflict models.Reservation
	err := query.Order("start_date ASC").First(&conflict).Error
	if err == nil {
		return &OverlapError{Start: conflict.StartDate, End: conflict.EndDate}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func quoteRange(tx *gorm.DB, listing *models.Listing, start, end time.Time) (PriceQuote, error) {
	var entries []models.AvailabilityEntry
	if err := tx.Where("listing_id = ? AND date >= ? AND date < ?",
		listing.ID, Day(start), Day(end)).Find(&entries).Error; err != nil {
		return PriceQuote{}, err
	}

	overrides := make(map[time.Time]models.AvailabilityEntry, len(entries))
	for _, e := range entries {
		overrides[Day(e.Date)] = e
	}

	return QuoteStay(listing.NightlyPrice, NightsIn(start, end), overrides)
}

// translateDBError maps an exclusion-constraint violation raised by a racing
// insert onto the same conflict error the application-level check produces.
func translateDBError(err error, start, end time.Time) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return &OverlapError{Start: Day(start), End: Day(end)}
	}
	return err
}
