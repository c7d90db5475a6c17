package routes

import (
	"github.com/BookClub/BookClub-Backend/src/controllers"
	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

func SetupTransactionRoutes(router *gin.Engine, service *services.LendingService, jwtSecret string) {
	transactionController := controllers.NewTransactionController(service)

	// Public routes
	router.GET("/transactions/successful/:clubId", transactionController.GetSuccessfulTransactions)

	// Protected routes
	transaction := router.Group("/transactions")
	transaction.Use(middleware.AuthMiddleware(jwtSecret))
	{
		transaction.POST("/borrow", transactionController.RequestBorrow)
		transaction.POST("/request", transactionController.RequestBook)
		transaction.PUT("/approve/:id", transactionController.ApproveRequest)
		transaction.PUT("/reject/:id", transactionController.RejectRequest)
		transaction.PUT("/return/:id", transactionController.ReturnBook)
		transaction.GET("/requested/:userId", transactionController.GetRequestedBooks)
		transaction.GET("/received/:userId", transactionController.GetRequestsReceived)
		transaction.GET("/borrowed/:userId", transactionController.GetBorrowedBooks)
		transaction.GET("/token/:token", transactionController.GetByToken)
	}
}
