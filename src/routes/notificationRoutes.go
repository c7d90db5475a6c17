package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupNotificationRoutes(router *gin.Engine, service *services.NotificationService, jwtSecret string) {
	notificationController := controllers.NewNotificationController(service)

	// Protected routes
	notification := router.Group("/notifications")
	notification.Use(middleware.AuthMiddleware(jwtSecret))
	{
		notification.GET("", notificationController.GetNotifications)
		notification.GET("/unread-count", notificationController.GetUnreadCount)
		notification.PUT("/read/:id", notificationController.MarkAsRead)
	}
}
