package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

type TransactionController struct {
	service *services.LendingService
}

func NewTransactionController(service *services.LendingService) *TransactionController {
	return &TransactionController{service: service}
}

type borrowRequest struct {
	BookID  int `json:"bookId" binding:"required"`
	OwnerID int `json:"ownerId" binding:"required"`
}

type bookRequest struct {
	BookID int `json:"bookId" binding:"required"`
	UserID int `json:"userId" binding:"required"`
}

type returnRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// RequestBorrow handles POST requests to ask an owner for a book
func (c *TransactionController) RequestBorrow(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req borrowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing bookId or ownerId"})
		return
	}

	transaction, err := c.service.RequestBorrow(ctx.Request.Context(), actor, req.BookID, req.OwnerID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":       "Borrow request created successfully",
		"transactionId": transaction.Id,
		"token":         transaction.Token,
	})
}

// RequestBook handles POST requests for a book that is currently lent out
func (c *TransactionController) RequestBook(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req bookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Book ID and User ID are required."})
		return
	}

	transaction, err := c.service.RequestUnavailableBook(ctx.Request.Context(), actor, req.BookID, req.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":       "Book request submitted successfully.",
		"transactionId": transaction.Id,
		"token":         transaction.Token,
	})
}

// ApproveRequest handles PUT requests approving a borrow request
func (c *TransactionController) ApproveRequest(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id", "transaction ID")
	if !ok {
		return
	}

	transaction, err := c.service.ApproveBorrow(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Request approved and other requests for this book are canceled.",
		"transaction": transaction,
	})
}

// RejectRequest handles PUT requests rejecting a borrow request
func (c *TransactionController) RejectRequest(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id", "transaction ID")
	if !ok {
		return
	}

	transaction, err := c.service.RejectBorrow(ctx.Request.Context(), actor, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Request rejected successfully", "transaction": transaction})
}

// ReturnBook handles PUT requests returning a book, with an optional review
func (c *TransactionController) ReturnBook(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id", "transaction ID")
	if !ok {
		return
	}

	var review *services.ReviewInput
	if ctx.Request.ContentLength > 0 {
		var req returnRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Rating == nil && strings.TrimSpace(req.Comment) != "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "A rating is required to leave a comment"})
			return
		}
		if req.Rating != nil {
			review = &services.ReviewInput{Rating: *req.Rating, Comment: req.Comment}
		}
	}

	transaction, err := c.service.ReturnBorrow(ctx.Request.Context(), actor, id, review)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Book returned successfully!", "transaction": transaction})
}

// GetRequestedBooks handles GET requests for a borrower's pending requests
func (c *TransactionController) GetRequestedBooks(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "userId", "user ID")
	if !ok {
		return
	}

	requested, err := c.service.RequestedBy(ctx.Request.Context(), actor, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, requested)
}

// GetRequestsReceived handles GET requests for the pending requests on an owner's books
func (c *TransactionController) GetRequestsReceived(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "userId", "user ID")
	if !ok {
		return
	}

	received, err := c.service.ReceivedBy(ctx.Request.Context(), actor, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, received)
}

// GetBorrowedBooks handles GET requests for a borrower's current and past loans
func (c *TransactionController) GetBorrowedBooks(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "userId", "user ID")
	if !ok {
		return
	}

	borrowed, err := c.service.BorrowedBy(ctx.Request.Context(), actor, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, borrowed)
}

// GetByToken handles GET requests for a transaction by its token
func (c *TransactionController) GetByToken(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	summary, err := c.service.GetByToken(ctx.Request.Context(), actor, ctx.Param("token"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// GetSuccessfulTransactions handles GET requests counting a club's completed loans
func (c *TransactionController) GetSuccessfulTransactions(ctx *gin.Context) {
	clubID, err := strconv.Atoi(ctx.Param("clubId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}

	total, err := c.service.SuccessfulInClub(ctx.Request.Context(), clubID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"totalSuccessfulTransactions": total})
}
