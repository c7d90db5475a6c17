package routes

import (
	"log/slog"
	"net/http"

	"github.com/BookClub/BookClub-Backend/src/config"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter mounts every resource's routes on a fresh gin engine
func SetupRouter(cfg *config.Config, log *slog.Logger, registry *services.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SetupCORS(cfg.AllowedOrigins))
	router.Static("/uploads", cfg.UploadDir)

	// Routes setup
	SetupUserRoutes(router, registry.Users, cfg.JWTSecret)
	SetupClubRoutes(router, registry.Clubs, cfg.JWTSecret)
	SetupBookRoutes(router, registry.Books, cfg.JWTSecret, cfg.UploadDir)
	SetupTransactionRoutes(router, registry.Lending, cfg.JWTSecret)
	SetupReviewRoutes(router, registry.Reviews, cfg.JWTSecret)
	SetupNotificationRoutes(router, registry.Notifications, cfg.JWTSecret)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello from BookClub!")
	})

	return router
}
