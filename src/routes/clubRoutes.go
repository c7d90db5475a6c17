package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupClubRoutes(router *gin.Engine, service *services.ClubService, jwtSecret string) {
	clubController := controllers.NewClubController(service)

	// Public routes
	router.GET("/clubs", clubController.GetAllClubs)
	router.GET("/clubs/:id", clubController.GetClubByID)

	// Protected routes
	club := router.Group("/clubs")
	club.Use(middleware.AuthMiddleware(jwtSecret))
	{
		club.POST("", middleware.RequireRole(models.RoleSuperAdmin), clubController.CreateClub)
		club.GET("/:id/members", clubController.GetMembers)
		club.GET("/:id/report", clubController.DownloadReport)
	}
}
