package routes

import (
	"encoding/json"
	"strconv"

	"travana-server/models"
	"travana-server/services"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
)

type CreateListingInput struct {
	Title        string   `json:"title" validate:"required,max=256"`
	Description  string   `json:"description"`
	AddressLine1 string   `json:"addressLine1"`
	AddressLine2 string   `json:"addressLine2"`
	Zip          string   `json:"zip"`
	Country      string   `json:"country"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	MaxGuests    int      `json:"maxGuests" validate:"required,gte=1"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0"`
	Beds         int      `json:"beds" validate:"gte=0"`
	Bathrooms    float32  `json:"bathrooms" validate:"gte=0"`
	NightlyPrice float64  `json:"nightlyPrice" validate:"required,gt=0"`
	Currency     string   `json:"currency"`
	Images       []string `json:"images"`
	CityID       *uint    `json:"cityID"`
	CategoryID   *uint    `json:"categoryID"`
}

func CreateListing(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// Ensure the array is never null
	images := input.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, _ := json.Marshal(images)

	listing := models.Listing{
		HostID:       userID,
		Title:        input.Title,
		Description:  input.Description,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		Zip:          input.Zip,
		Country:      input.Country,
		Lat:          input.Lat,
		Lng:          input.Lng,
		MaxGuests:    input.MaxGuests,
		Bedrooms:     input.Bedrooms,
		Beds:         input.Beds,
		Bathrooms:    input.Bathrooms,
		NightlyPrice: input.NightlyPrice,
		Currency:     input.Currency,
		Images:       string(imagesJSON),
		CityID:       input.CityID,
		CategoryID:   input.CategoryID,
	}

	if err := storage.DB.Create(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(listing)
}

func GetListing(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var listing models.Listing
	if err := storage.DB.Preload("Host").Preload("City").Preload("Category").
		First(&listing, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Listing not found")
		return
	}

	ctx.JSON(listing)
}

// GetListings returns active listings with pagination, optionally filtered
// by city and category.
func GetListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Listing{}).Where("is_active = ?", true)
	if cityID := ctx.URLParam("cityID"); cityID != "" {
		query = query.Where("city_id = ?", cityID)
	}
	if categoryID := ctx.URLParam("categoryID"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var listings []models.Listing
	if err := query.Preload("City").Preload("Category").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&listings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

func GetListingsByUserID(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var listings []models.Listing
	if err := storage.DB.Where("host_id = ?", id).Order("created_at DESC").
		Find(&listings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listings)
}

type UpdateListingInput struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	MaxGuests    *int     `json:"maxGuests" validate:"omitempty,gte=1"`
	Bedrooms     *int     `json:"bedrooms"`
	Beds         *int     `json:"beds"`
	Bathrooms    *float32 `json:"bathrooms"`
	NightlyPrice *float64 `json:"nightlyPrice" validate:"omitempty,gt=0"`
	Images       []string `json:"images"`
	IsActive     *bool    `json:"isActive"`
	CityID       *uint    `json:"cityID"`
	CategoryID   *uint    `json:"categoryID"`
}

func UpdateListing(ctx iris.Context) {
	listing, ok := listingOwnedByCaller(ctx)
	if !ok {
		return
	}

	var input UpdateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.MaxGuests != nil {
		listing.MaxGuests = *input.MaxGuests
	}
	if input.Bedrooms != nil {
		listing.Bedrooms = *input.Bedrooms
	}
	if input.Beds != nil {
		listing.Beds = *input.Beds
	}
	if input.Bathrooms != nil {
		listing.Bathrooms = *input.Bathrooms
	}
	if input.NightlyPrice != nil {
		listing.NightlyPrice = *input.NightlyPrice
	}
	if input.Images != nil {
		imagesJSON, _ := json.Marshal(input.Images)
		listing.Images = string(imagesJSON)
	}
	if input.IsActive != nil {
		listing.IsActive = input.IsActive
	}
	if input.CityID != nil {
		listing.CityID = input.CityID
	}
	if input.CategoryID != nil {
		listing.CategoryID = input.CategoryID
	}

	if err := storage.DB.Save(listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listing)
}

// DeleteListing soft-deletes a listing. Deletion is blocked while any
// non-cancelled reservation with a future end date exists; cancel or wait
// out those stays first.
func DeleteListing(ctx iris.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return
	}

	id := ctx.Params().Get("id")

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Listing not found")
		return
	}

	isAdmin := claims.Role == "admin" || claims.Role == "super_admin"
	if listing.HostID != claims.ID && !isAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You can only delete your own listings"})
		return
	}

	if err := services.DeleteListing(listing.ID); err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Listing deleted"})
}

type DeleteImageInput struct {
	ListingID uint   `json:"listingID" validate:"required"`
	ImageURL  string `json:"imageURL" validate:"required"`
}

// DeleteListingImage removes one image from a listing and from media storage.
func DeleteListingImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input DeleteImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var listing models.Listing
	if err := storage.DB.Where("id = ? AND host_id = ?", input.ListingID, userID).
		First(&listing).Error; err != nil {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "Listing not found or access denied"})
		return
	}

	var images []string
	if listing.Images != "" {
		json.Unmarshal([]byte(listing.Images), &images)
	}

	kept := make([]string, 0, len(images))
	removed := false
	for _, img := range images {
		if img == input.ImageURL {
			removed = true
			continue
		}
		kept = append(kept, img)
	}
	if !removed {
		utils.CreateNotFound(ctx)
		return
	}

	imagesJSON, _ := json.Marshal(kept)
	listing.Images = string(imagesJSON)
	if err := storage.DB.Save(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DeleteImage(input.ImageURL)

	ctx.JSON(iris.Map{"success": true, "images": kept})
}

// listingOwnedByCaller loads the {id} listing and enforces host ownership.
func listingOwnedByCaller(ctx iris.Context) (*models.Listing, bool) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return nil, false
	}

	idStr := ctx.Params().Get("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Invalid listing ID"})
		return nil, false
	}

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Listing not found")
		return nil, false
	}

	if listing.HostID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You can only manage your own listings"})
		return nil, false
	}

	return &listing, true
}
