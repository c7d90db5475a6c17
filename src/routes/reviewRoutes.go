package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupReviewRoutes(router *gin.Engine, service *services.ReviewService, jwtSecret string) {
	reviewController := controllers.NewReviewController(service)

	// Public routes
	router.GET("/reviews/book/:bookId", reviewController.GetBookReviews)

	// Protected routes
	review := router.Group("/reviews")
	review.Use(middleware.AuthMiddleware(jwtSecret))
	{
		review.POST("/add", reviewController.AddReview)
		review.GET("/mine", reviewController.GetMyReviews)
		review.PUT("/edit/:reviewId", reviewController.EditReview)
		review.PUT("/approve/:reviewId",
			middleware.RequireRole(models.RoleClubAdmin, models.RoleSuperAdmin),
			reviewController.SetApproval)
	}
}
