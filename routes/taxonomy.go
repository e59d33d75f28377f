package routes

import (
	"travana-server/models"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
)

// Taxonomy routes: cities, categories and facilities listings attach to.
// Public reads, admin-only writes.

func GetCities(ctx iris.Context) {
	var cities []models.City
	if err := storage.DB.Where("is_active = ?", true).
		Order("sort_order ASC").Find(&cities).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to fetch cities"})
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    cities,
		"count":   len(cities),
	})
}

func GetCategories(ctx iris.Context) {
	var categories []models.Category
	if err := storage.DB.Where("is_active = ?", true).
		Order("sort_order ASC").Find(&categories).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to fetch categories"})
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    categories,
		"count":   len(categories),
	})
}

func GetFacilities(ctx iris.Context) {
	var facilities []models.Facility
	if err := storage.DB.Where("is_active = ?", true).
		Order("sort_order ASC").Find(&facilities).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to fetch facilities"})
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    facilities,
		"count":   len(facilities),
	})
}

type CityInput struct {
	Name      models.LocalizedName `json:"name" validate:"required"`
	Country   string               `json:"country"`
	ImageURL  string               `json:"imageURL"`
	IsActive  *bool                `json:"isActive"`
	SortOrder int                  `json:"sortOrder"`
}

func CreateCity(ctx iris.Context) {
	var input CityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	city := models.City{
		Name:      input.Name,
		Country:   input.Country,
		ImageURL:  input.ImageURL,
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if input.IsActive != nil {
		city.IsActive = *input.IsActive
	}

	if err := storage.DB.Create(&city).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "city_create", "city", city.ID, nil, city)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(city)
}

type CategoryInput struct {
	Name      models.LocalizedName `json:"name" validate:"required"`
	Icon      string               `json:"icon"`
	IsActive  *bool                `json:"isActive"`
	SortOrder int                  `json:"sortOrder"`
}

func CreateCategory(ctx iris.Context) {
	var input CategoryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	category := models.Category{
		Name:      input.Name,
		Icon:      input.Icon,
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := storage.DB.Create(&category).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "category_create", "category", category.ID, nil, category)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(category)
}

type FacilityInput struct {
	Name      models.LocalizedName `json:"name" validate:"required"`
	Icon      string               `json:"icon"`
	LogoURL   string               `json:"logoURL"`
	IsActive  *bool                `json:"isActive"`
	SortOrder int                  `json:"sortOrder"`
}

func CreateFacility(ctx iris.Context) {
	var input FacilityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	facility := models.Facility{
		Name:      input.Name,
		Icon:      input.Icon,
		LogoURL:   input.LogoURL,
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if input.IsActive != nil {
		facility.IsActive = *input.IsActive
	}

	if err := storage.DB.Create(&facility).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "facility_create", "facility", facility.ID, nil, facility)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(facility)
}

func UpdateCategory(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var category models.Category
	if err := storage.DB.First(&category, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := category

	var input CategoryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	category.Name = input.Name
	category.Icon = input.Icon
	category.SortOrder = input.SortOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := storage.DB.Save(&category).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "category_update", "category", category.ID, before, category)

	ctx.JSON(category)
}

func DeleteCategory(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var category models.Category
	if err := storage.DB.First(&category, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var inUse int64
	storage.DB.Model(&models.Listing{}).Where("category_id = ?", category.ID).Count(&inUse)
	if inUse > 0 {
		utils.JSONError(ctx, iris.StatusConflict, "conflict",
			"Category is referenced by listings and cannot be deleted")
		return
	}

	if err := storage.DB.Delete(&category).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "category_delete", "category", category.ID, category, nil)

	ctx.JSON(iris.Map{"success": true})
}

func UpdateFacility(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var facility models.Facility
	if err := storage.DB.First(&facility, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := facility

	var input FacilityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	facility.Name = input.Name
	facility.Icon = input.Icon
	facility.LogoURL = input.LogoURL
	facility.SortOrder = input.SortOrder
	if input.IsActive != nil {
		facility.IsActive = *input.IsActive
	}

	if err := storage.DB.Save(&facility).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "facility_update", "facility", facility.ID, before, facility)

	ctx.JSON(facility)
}

func DeleteFacility(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var facility models.Facility
	if err := storage.DB.First(&facility, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := storage.DB.Delete(&facility).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "facility_delete", "facility", facility.ID, facility, nil)

	ctx.JSON(iris.Map{"success": true})
}

func UpdateCity(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var city models.City
	if err := storage.DB.First(&city, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := city

	var input CityInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	city.Name = input.Name
	city.Country = input.Country
	city.ImageURL = input.ImageURL
	city.SortOrder = input.SortOrder
	if input.IsActive != nil {
		city.IsActive = *input.IsActive
	}

	if err := storage.DB.Save(&city).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "city_update", "city", city.ID, before, city)

	ctx.JSON(city)
}

func DeleteCity(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var city models.City
	if err := storage.DB.First(&city, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var inUse int64
	storage.DB.Model(&models.Listing{}).Where("city_id = ?", city.ID).Count(&inUse)
	if inUse > 0 {
		utils.JSONError(ctx, iris.StatusConflict, "conflict",
			"City is referenced by listings and cannot be deleted")
		return
	}

	if err := storage.DB.Delete(&city).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "city_delete", "city", city.ID, city, nil)

	ctx.JSON(iris.Map{"success": true})
}
