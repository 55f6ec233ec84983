// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/handlers"
	"github.com/myfitlabs/myfit-backend/internal/middleware"
	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg, notificationService)
	workoutService := services.NewWorkoutService(db)
	nutritionService := services.NewNutritionService(db)
	marketplaceService := services.NewMarketplaceService(db, cfg, workoutService, nutritionService)
	earningsService := services.NewEarningsService(db, cfg)
	purchaseService := services.NewPurchaseService(db, cfg, marketplaceService,
		workoutService, nutritionService, earningsService, notificationService)
	reviewService := services.NewReviewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService, storageService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	earningsHandler := handlers.NewEarningsHandler(earningsService, notificationService, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Marketplace catalog
		templates := v1.Group("/marketplace/templates")
		{
			templates.GET("", marketplaceHandler.ListTemplates)
			templates.GET("/featured", marketplaceHandler.GetFeaturedTemplates)
			templates.GET("/categories", marketplaceHandler.GetCategories)
			templates.GET("/:id", marketplaceHandler.GetTemplate)
			templates.GET("/:id/preview", marketplaceHandler.GetTemplatePreview)
			templates.GET("/:id/reviews", reviewHandler.ListTemplateReviews)
			templates.GET("/:id/reviews/distribution", reviewHandler.GetRatingDistribution)

			protected := templates.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", marketplaceHandler.CreateTemplate)
				protected.PUT("/:id", marketplaceHandler.UpdateTemplate)
				protected.DELETE("/:id", marketplaceHandler.DeactivateTemplate)
				protected.POST("/:id/cover", middleware.UploadRateLimit(), marketplaceHandler.UploadCoverImage)
			}
		}

		// Purchases
		purchases := v1.Group("/marketplace/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("/checkout", middleware.CheckoutRateLimit(), purchaseHandler.Checkout)
			purchases.POST("/confirm", purchaseHandler.ConfirmPayment)
			purchases.GET("", purchaseHandler.ListMyPurchases)
			purchases.GET("/:id", purchaseHandler.GetPurchase)
		}

		// Reviews
		reviews := v1.Group("/marketplace/reviews")
		reviews.Use(middleware.AuthRequired())
		{
			reviews.POST("", reviewHandler.CreateReview)
		}

		// Creator earnings and payouts
		creator := v1.Group("/creator")
		creator.Use(middleware.AuthRequired())
		{
			creator.GET("/templates", marketplaceHandler.GetMyTemplates)
			creator.GET("/earnings", earningsHandler.GetMyEarnings)
			creator.GET("/dashboard", earningsHandler.GetDashboard)
			creator.POST("/payouts", earningsHandler.RequestPayout)
			creator.GET("/payouts", earningsHandler.ListMyPayouts)
		}

		// Organization template shelf
		organizations := v1.Group("/organizations")
		organizations.Use(middleware.AuthRequired())
		{
			organizations.GET("/:orgId/templates", marketplaceHandler.ListOrganizationTemplates)
			organizations.POST("/:orgId/templates", marketplaceHandler.GrantOrganizationAccess)
			organizations.DELETE("/:orgId/templates/:templateId", marketplaceHandler.RevokeOrganizationAccess)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/purchases/:id/complete", purchaseHandler.CompletePurchase)
			admin.POST("/purchases/:id/fail", purchaseHandler.FailPurchase)
			admin.POST("/purchases/:id/refund", purchaseHandler.RefundPurchase)
			admin.GET("/payouts", earningsHandler.ListPendingPayouts)
			admin.POST("/payouts/:id/process", earningsHandler.ProcessPayout)
		}
	}

	return r
}
