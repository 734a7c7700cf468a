package router

import (
	"github.com/gin-gonic/gin"
	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/internal/app/controller"
	"github.com/genbyt/genbyt-backend/internal/middleware"
)

type Router struct {
	listingController  *controller.ListingController
	favoriteController *controller.FavoriteController
	catalogController  *controller.CatalogController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	listingController *controller.ListingController,
	favoriteController *controller.FavoriteController,
	catalogController *controller.CatalogController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		listingController:  listingController,
		favoriteController: favoriteController,
		catalogController:  catalogController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "GENBYT API is running",
		})
	})

	// Locally stored media is served straight from disk.
	if r.config.Storage.Mode == config.StorageModeLocal {
		router.Static("/uploads", r.config.Storage.LocalPath)
	}

	v1 := router.Group("/api/v1")
	{
		listings := v1.Group("/listings")
		{
			listings.GET("", r.authMiddleware.OptionalAuthenticate(), r.listingController.ListListings)
			listings.GET("/recent", r.listingController.GetRecentListings)
			listings.GET("/search", r.listingController.SearchListings)
			listings.GET("/my", r.authMiddleware.Authenticate(), r.listingController.GetMyListings)
			listings.GET("/:id", r.authMiddleware.OptionalAuthenticate(), r.listingController.GetListingByID)

			listings.POST("", r.authMiddleware.Authenticate(), r.listingController.CreateListing)
			listings.PUT("/:id", r.authMiddleware.Authenticate(), r.listingController.UpdateListing)
			listings.POST("/:id/sold", r.authMiddleware.Authenticate(), r.listingController.MarkListingSold)
			listings.POST("/:id/toggle-status", r.authMiddleware.Authenticate(), r.listingController.ToggleListingStatus)
			listings.DELETE("/:id", r.authMiddleware.Authenticate(), r.listingController.DeleteListing)
			listings.DELETE("/:id/force",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireAdmin(),
				r.listingController.ForceDeleteListing,
			)

			listings.POST("/:id/favorite", r.authMiddleware.Authenticate(), r.favoriteController.AddFavorite)
			listings.DELETE("/:id/favorite", r.authMiddleware.Authenticate(), r.favoriteController.RemoveFavorite)
		}

		v1.GET("/favorites", r.authMiddleware.Authenticate(), r.favoriteController.ListFavorites)

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/options", r.catalogController.GetOptions)
			catalog.GET("/categories", r.catalogController.GetCategories)
			catalog.GET("/terms/:kind", r.catalogController.GetTerms)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
		{
			admin.GET("/statistics", r.catalogController.GetStatistics)
			admin.GET("/sold-archive/export", r.catalogController.ExportSoldArchive)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
