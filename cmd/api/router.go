package api

import (
	"net/http"

	"fiwb-backend/internal/auth/delivery"
	authUsecase "fiwb-backend/internal/auth/usecase"
	syncDelivery "fiwb-backend/internal/sync/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, syncHandler *syncDelivery.SyncHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
			auth.POST("/imap", delivery.AuthMiddleware(authUsecase), syncHandler.SetImapCredentials)
		}

		// Sync routes (protected)
		sync := api.Group("/sync")
		sync.Use(delivery.AuthMiddleware(authUsecase))
		{
			sync.POST("/trigger", syncHandler.TriggerSync)
			sync.GET("/status", syncHandler.GetStatus)
		}

		// Course browsing (protected)
		courses := api.Group("/courses")
		courses.Use(delivery.AuthMiddleware(authUsecase))
		{
			courses.GET("", syncHandler.ListCourses)
			courses.GET("/:id/materials", syncHandler.ListMaterials)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(delivery.AuthMiddleware(authUsecase))
		{
			search.POST("/semantic", syncHandler.SemanticSearch)
		}

		// Drive watched-folder management (protected)
		driveGroup := api.Group("/drive")
		driveGroup.Use(delivery.AuthMiddleware(authUsecase))
		{
			driveGroup.GET("/folders", syncHandler.ListDriveFolders)
			driveGroup.POST("/sync", syncHandler.SetWatchedFolders)
		}

		// Moodle connection (protected)
		moodleGroup := api.Group("/moodle")
		moodleGroup.Use(delivery.AuthMiddleware(authUsecase))
		{
			moodleGroup.POST("/connect", syncHandler.ConnectMoodle)
		}
	}
}
