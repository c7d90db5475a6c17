package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupBookRoutes(router *gin.Engine, service *services.BookService, jwtSecret, uploadDir string) {
	bookController := controllers.NewBookController(service, uploadDir)

	// Public routes
	router.GET("/books", bookController.GetAllBooks)
	router.GET("/books/:id", bookController.GetBookByID)

	// Protected routes
	book := router.Group("/books")
	book.Use(middleware.AuthMiddleware(jwtSecret))
	{
		book.GET("/my-books", bookController.GetMyBooks)
		book.POST("", bookController.CreateBook)
		book.PUT("/:id", bookController.UpdateBook)
		book.DELETE("/:id", bookController.DeleteBook)

		// Upload
		book.POST("/:id/cover", bookController.UploadCover)
		book.POST("/import", bookController.ImportBooks)
	}
}
