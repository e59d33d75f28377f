package main

import (
	"fmt"
	"log"
	"os"

	"travana-server/routes"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
		user.Patch("/{id}/listings/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterUserSavedListings)
		user.Get("/reservations", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUserReservations)
		user.Get("/notifications", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetNotifications)
		user.Patch("/notifications/{id}/read", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkNotificationRead)
	}

	listing := app.Party("/api/listing")
	{
		listing.Get("/", routes.GetListings)
		listing.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateListing)
		listing.Get("/{id}", routes.GetListing)
		listing.Get("/userid/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetListingsByUserID)
		listing.Patch("/update/{id}", accessTokenVerifierMiddleware, routes.UpdateListing)
		listing.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteListing)
		listing.Delete("/image", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteListingImage)

		// Availability calendar
		listing.Get("/{id}/availability", routes.GetEffectiveAvailability)
		listing.Get("/{id}/availability/overrides", accessTokenVerifierMiddleware, routes.GetListingAvailabilityOverrides)
		listing.Post("/{id}/availability", accessTokenVerifierMiddleware, routes.SetListingAvailability)
		listing.Post("/{id}/availability/bulk", accessTokenVerifierMiddleware, routes.SetBulkListingAvailability)
		listing.Delete("/{id}/availability", accessTokenVerifierMiddleware, routes.DeleteListingAvailability)

		// Bookings on a listing
		listing.Post("/{id}/reservation", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateReservation)
		listing.Post("/{id}/block", accessTokenVerifierMiddleware, routes.CreateBlock)
		listing.Get("/{id}/reservations", accessTokenVerifierMiddleware, routes.GetListingReservations)
	}

	reservation := app.Party("/api/reservation")
	{
		reservation.Patch("/{id}", accessTokenVerifierMiddleware, routes.UpdateReservation)
		reservation.Post("/{id}/cancel", accessTokenVerifierMiddleware, routes.CancelReservation)
		reservation.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteReservation)
	}

	blog := app.Party("/api/blog")
	{
		blog.Get("/posts", routes.GetBlogPosts)
		blog.Post("/posts", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateBlogPost)
		blog.Get("/posts/{slug:string}", routes.GetBlogPostBySlug)
		blog.Patch("/{id:uint}", accessTokenVerifierMiddleware, routes.UpdateBlogPost)
		blog.Delete("/{id:uint}", accessTokenVerifierMiddleware, routes.DeleteBlogPost)
		blog.Get("/{id:uint}/comments", routes.GetBlogComments)
		blog.Post("/{id:uint}/comments", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateBlogComment)
		blog.Delete("/comments/{commentID:uint}", accessTokenVerifierMiddleware, routes.DeleteBlogComment)
		blog.Post("/{id:uint}/like", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.ToggleBlogLike)
		blog.Get("/categories", routes.GetBlogCategories)
		blog.Post("/categories", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateBlogCategory)
	}

	taxonomy := app.Party("/api/taxonomy")
	{
		taxonomy.Get("/cities", routes.GetCities)
		taxonomy.Get("/categories", routes.GetCategories)
		taxonomy.Get("/facilities", routes.GetFacilities)
		taxonomy.Post("/cities", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateCity)
		taxonomy.Patch("/cities/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateCity)
		taxonomy.Delete("/cities/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteCity)
		taxonomy.Post("/categories", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateCategory)
		taxonomy.Patch("/categories/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateCategory)
		taxonomy.Delete("/categories/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteCategory)
		taxonomy.Post("/facilities", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateFacility)
		taxonomy.Patch("/facilities/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateFacility)
		taxonomy.Delete("/facilities/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteFacility)
	}

	upload := app.Party("/api/upload")
	{
		upload.Post("/", accessTokenVerifierMiddleware, routes.UploadImage)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", utils.SuperAdminOnlyMiddleware, routes.AdminChangeUserRole)
		admin.Get("/reservations", routes.AdminListReservations)
		admin.Post("/reservations/{id:uint}/cancel", routes.AdminCancelReservation)
		admin.Patch("/listings/{id:uint}/status", routes.AdminSetListingStatus)
		admin.Get("/audit", routes.AdminListAuditLogs)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
