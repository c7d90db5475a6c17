package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(router *gin.Engine, service *services.UserService, jwtSecret string) {
	userController := controllers.NewUserController(service)

	// Public routes
	router.POST("/login", userController.Login)
	router.POST("/register", userController.Register)

	// Protected routes
	user := router.Group("/users")
	user.Use(middleware.AuthMiddleware(jwtSecret))
	{
		user.GET("/me", userController.GetMe)
		user.POST("", middleware.RequireRole(models.RoleClubAdmin, models.RoleSuperAdmin), userController.CreateUser)
	}
}
