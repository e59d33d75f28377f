package routes

import (
	"travana-server/storage"
	"travana-server/utils"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

type UploadImageInput struct {
	Image string `json:"image" validate:"required"` // base64 data URL
}

// UploadImage pushes a base64 image to media storage and returns its URL.
// Used for listing photos and blog covers alike.
func UploadImage(ctx iris.Context) {
	var input UploadImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	publicID := uuid.NewString()
	url, err := storage.UploadBase64Image(input.Image, publicID)
	if err != nil {
		utils.CreateError(iris.StatusBadGateway, "Upload Error", err.Error(), ctx)
		return
	}

	ctx.JSON(iris.Map{"url": url})
}
