package routes

import (
	"errors"
	"fmt"
	"strconv"

	"travana-server/models"
	"travana-server/services"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
)

type CreateReservationInput struct {
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	GuestCount int    `json:"guestCount" validate:"required,gte=1"`
	ClientType string `json:"clientType" validate:"required,oneof=family group one"`
	Details    string `json:"details"`
}

type CreateBlockInput struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Details   string `json:"details"`
}

type UpdateReservationInput struct {
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	GuestCount int    `json:"guestCount" validate:"omitempty,gte=1"`
	ClientType string `json:"clientType" validate:"omitempty,oneof=family group one"`
	Details    string `json:"details"`
}

// CreateReservation books a stay on a listing for the authenticated user.
func CreateReservation(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	listingID, ok := listingIDParam(ctx)
	if !ok {
		return
	}

	var input CreateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, err := services.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	reservation, err := services.CreateReservation(services.ReservationRequest{
		ListingID:  listingID,
		UserID:     &userID,
		StartDate:  start,
		EndDate:    end,
		GuestCount: input.GuestCount,
		ClientType: input.ClientType,
		Details:    input.Details,
	})
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	notifyHostOfReservation(reservation)

	storage.DB.Preload("Listing").Preload("User").First(reservation, reservation.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(reservation)
}

// CreateBlock withholds a date range without a guest: the owner (or an
// admin) manually blocks the calendar. Blocks occupy the calendar exactly
// like bookings in every overlap check.
func CreateBlock(ctx iris.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return
	}

	listingID, ok := listingIDParam(ctx)
	if !ok {
		return
	}

	var listing models.Listing
	if err := storage.DB.First(&listing, listingID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Listing not found")
		return
	}

	isAdmin := claims.Role == "admin" || claims.Role == "super_admin"
	if listing.HostID != claims.ID && !isAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You can only block dates on your own listings"})
		return
	}

	var input CreateBlockInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, err := services.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	block, err := services.CreateReservation(services.ReservationRequest{
		ListingID: listingID,
		StartDate: start,
		EndDate:   end,
		Details:   input.Details,
		IsBlocked: true,
	})
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(block)
}

// UpdateReservation edits dates or guest count; the overlap check re-runs
// excluding the reservation's own prior state.
func UpdateReservation(ctx iris.Context) {
	reservation, ok := reservationAccessibleByCaller(ctx)
	if !ok {
		return
	}

	var input UpdateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, err := services.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	updated, err := services.UpdateReservation(reservation.ID, services.ReservationRequest{
		StartDate:  start,
		EndDate:    end,
		GuestCount: input.GuestCount,
		ClientType: input.ClientType,
		Details:    input.Details,
	})
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.JSON(updated)
}

// CancelReservation marks the reservation cancelled, freeing its range.
func CancelReservation(ctx iris.Context) {
	reservation, ok := reservationAccessibleByCaller(ctx)
	if !ok {
		return
	}

	if reservation.Status == models.ReservationStatusCancelled {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Reservation is already cancelled"})
		return
	}

	cancelled, err := services.CancelReservation(reservation.ID)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	if cancelled.UserID != nil {
		notification := models.Notification{
			UserID:  *cancelled.UserID,
			Title:   "Reservation Cancelled",
			Message: fmt.Sprintf("Your reservation from %s to %s has been cancelled", cancelled.StartDate.Format("Jan 2, 2006"), cancelled.EndDate.Format("Jan 2, 2006")),
			Type:    "reservation_cancelled",
			RefID:   cancelled.ID,
			RefType: "reservation",
		}
		storage.DB.Create(&notification)
	}

	ctx.JSON(cancelled)
}

// DeleteReservation removes a reservation entirely, freeing its range.
func DeleteReservation(ctx iris.Context) {
	reservation, ok := reservationAccessibleByCaller(ctx)
	if !ok {
		return
	}

	if err := services.DeleteReservation(reservation.ID); err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Reservation deleted"})
}

// GetListingReservations lists a listing's reservations for its host,
// optionally filtered to a date range.
func GetListingReservations(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	query := storage.DB.Preload("User").
		Where("listing_id = ?", listing.ID)

	startDateStr := ctx.URLParam("startDate")
	endDateStr := ctx.URLParam("endDate")
	if startDateStr != "" && endDateStr != "" {
		start, end, err := services.ParseDateRange(startDateStr, endDateStr)
		if err != nil {
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		query = query.Where("start_date < ? AND end_date > ?", services.Day(end), services.Day(start))
	}

	var reservations []models.Reservation
	if err := query.Order("start_date ASC").Find(&reservations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}

// respondBookingError maps engine errors onto stable machine-readable codes
// so the client can distinguish every failure reason.
func respondBookingError(ctx iris.Context, err error) {
	var overlap *services.OverlapError
	var unavailable *services.UnavailableDateError

	switch {
	case errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrReservationNotFound):
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrInvalidRange):
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
	case errors.As(err, &overlap):
		utils.JSONError(ctx, iris.StatusConflict, "overlap_conflict", overlap.Error())
	case errors.As(err, &unavailable):
		utils.JSONError(ctx, iris.StatusConflict, "unavailable_date", unavailable.Error())
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.JSONError(ctx, iris.StatusBadRequest, "capacity_exceeded", err.Error())
	case errors.Is(err, services.ErrActiveReservations):
		utils.JSONError(ctx, iris.StatusConflict, "active_reservations", err.Error())
	case errors.Is(err, services.ErrMissingUser):
		utils.JSONError(ctx, iris.StatusBadRequest, "missing_user", err.Error())
	default:
		utils.CreateInternalServerError(ctx)
	}
}

// reservationAccessibleByCaller loads the {id} reservation and checks that
// the caller is its guest, the listing host, or an admin.
func reservationAccessibleByCaller(ctx iris.Context) (*models.Reservation, bool) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return nil, false
	}

	id := ctx.Params().Get("id")

	var reservation models.Reservation
	if err := storage.DB.Preload("Listing").First(&reservation, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Reservation not found")
		return nil, false
	}

	isGuest := reservation.UserID != nil && *reservation.UserID == claims.ID
	isHost := reservation.Listing != nil && reservation.Listing.HostID == claims.ID
	isAdmin := claims.Role == "admin" || claims.Role == "super_admin"
	if !isGuest && !isHost && !isAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You cannot manage this reservation"})
		return nil, false
	}

	return &reservation, true
}

func listingIDParam(ctx iris.Context) (uint, bool) {
	idStr := ctx.Params().Get("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Invalid listing ID"})
		return 0, false
	}
	return uint(id), true
}

func notifyHostOfReservation(reservation *models.Reservation) {
	var listing models.Listing
	if err := storage.DB.First(&listing, reservation.ListingID).Error; err != nil {
		return
	}

	notification := models.Notification{
		UserID:  listing.HostID,
		Title:   "New Reservation",
		Message: fmt.Sprintf("You have a new reservation for %s from %s to %s", listing.Title, reservation.StartDate.Format("Jan 2, 2006"), reservation.EndDate.Format("Jan 2, 2006")),
		Type:    "reservation_created",
		RefID:   reservation.ID,
		RefType: "reservation",
	}
	storage.DB.Create(&notification)
}
