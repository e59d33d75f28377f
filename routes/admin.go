package routes

import (
	"travana-server/models"
	"travana-server/services"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
)

// Admin routes. All are mounted behind AdminOnlyMiddleware; role changes
// additionally require super_admin.

func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.User{})
	if role := ctx.URLParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

type ChangeRoleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin super_admin"`
}

func AdminChangeUserRole(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var input ChangeRoleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := user.Role

	user.Role = input.Role
	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user_role_change", "user", user.ID,
		iris.Map{"role": before}, iris.Map{"role": user.Role})

	ctx.JSON(user)
}

func AdminListReservations(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Reservation{})
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if listingID := ctx.URLParam("listingID"); listingID != "" {
		query = query.Where("listing_id = ?", listingID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var reservations []models.Reservation
	if err := query.Preload("Listing").Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reservations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, reservations, page, perPage, total)
}

func AdminCancelReservation(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var reservation models.Reservation
	if err := storage.DB.First(&reservation, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Reservation not found")
		return
	}
	before := reservation

	cancelled, err := services.CancelReservation(reservation.ID)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	utils.Audit(ctx, "reservation_cancel", "reservation", cancelled.ID, before, cancelled)

	ctx.JSON(cancelled)
}

type ListingStatusInput struct {
	IsActive bool `json:"isActive"`
}

func AdminSetListingStatus(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var input ListingStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Listing not found")
		return
	}
	before := listing.IsActive

	listing.IsActive = &input.IsActive
	if err := storage.DB.Save(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "listing_status_change", "listing", listing.ID,
		iris.Map{"isActive": before}, iris.Map{"isActive": listing.IsActive})

	ctx.JSON(listing)
}

func AdminListAuditLogs(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 50)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	query := storage.DB.Model(&models.AuditLog{})
	if action := ctx.URLParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, logs, page, perPage, total)
}
