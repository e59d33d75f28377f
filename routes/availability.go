package routes

import (
	"fmt"
	"strconv"

	"travana-server/models"
	"travana-server/services"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
)

// Availability calendar routes. Calendar state and booking state are
// independently mutable: no reservation conflict check happens here, the
// reservation engine enforces mutual exclusion at booking time.

type AvailabilityInput struct {
	Date        string   `json:"date" validate:"required"`
	IsAvailable bool     `json:"isAvailable"`
	CustomPrice *float64 `json:"customPrice" validate:"omitempty,gt=0"`
}

type BulkAvailabilityInput struct {
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	IsAvailable bool   `json:"isAvailable"`
}

// GetEffectiveAvailability returns the authoritative per-day calendar for a
// date range, merging overrides and reservations server-side.
func GetEffectiveAvailability(ctx iris.Context) {
	listingIDStr := ctx.Params().Get("id")
	listingID, err := strconv.ParseUint(listingIDStr, 10, 32)
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Invalid listing ID"})
		return
	}

	startDateStr := ctx.URLParam("startDate")
	endDateStr := ctx.URLParam("endDate")
	if startDateStr == "" || endDateStr == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Start date and end date are required"})
		return
	}

	start, end, err := services.ParseDateRange(startDateStr, endDateStr)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	days, err := services.EffectiveAvailability(uint(listingID), start, end)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    days,
	})
}

// SetListingAvailability upserts the override for a single date.
func SetListingAvailability(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	var input AvailabilityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := services.ParseDate(input.Date)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	entry, err := services.SetAvailability(listing.ID, date, input.IsAvailable, input.CustomPrice)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Availability updated successfully",
		"data":    entry,
	})
}

// SetBulkListingAvailability upserts every date in the half-open
// [startDate, endDate) range. Idempotent.
func SetBulkListingAvailability(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	var input BulkAvailabilityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, err := services.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	entries, err := services.SetBulkAvailability(listing.ID, start, end, input.IsAvailable)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": fmt.Sprintf("Bulk availability set for %d days", len(entries)),
		"data":    entries,
	})
}

// DeleteListingAvailability drops the override for one date.
func DeleteListingAvailability(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	dateStr := ctx.URLParam("date")
	if dateStr == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Date is required"})
		return
	}

	date, err := services.ParseDate(dateStr)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	if err := services.DeleteAvailability(listing.ID, date); err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "No override for that date")
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Availability override removed"})
}

// GetListingAvailabilityOverrides lists the raw override rows for a range,
// for host calendar editing.
func GetListingAvailabilityOverrides(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	startDateStr := ctx.URLParam("startDate")
	endDateStr := ctx.URLParam("endDate")
	if startDateStr == "" || endDateStr == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Start date and end date are required"})
		return
	}

	start, end, err := services.ParseDateRange(startDateStr, endDateStr)
	if err != nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	var entries []models.AvailabilityEntry
	result := storage.DB.Where("listing_id = ? AND date >= ? AND date < ?",
		listing.ID, services.Day(start), services.Day(end)).
		Order("date ASC").Find(&entries)
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    entries,
	})
}
