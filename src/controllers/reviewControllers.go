package controllers

import (
	"net/http"

	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	service *services.ReviewService
}

func NewReviewController(service *services.ReviewService) *ReviewController {
	return &ReviewController{service: service}
}

type addReviewRequest struct {
	BookID        int    `json:"bookId" binding:"required"`
	Rating        int    `json:"rating" binding:"required"`
	Comment       string `json:"comment"`
	TransactionID *int   `json:"transactionId"`
}

type editReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

func (rc *ReviewController) AddReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bookId and rating are required"})
		return
	}

	review, err := rc.service.AddReview(c.Request.Context(), actor, req.BookID, req.Rating, req.Comment, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (rc *ReviewController) GetBookReviews(c *gin.Context) {
	bookID, ok := paramID(c, "bookId", "book ID")
	if !ok {
		return
	}

	reviews, err := rc.service.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) GetMyReviews(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	reviews, err := rc.service.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) EditReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "reviewId", "review ID")
	if !ok {
		return
	}
	var req editReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating is required"})
		return
	}

	review, err := rc.service.EditReview(c.Request.Context(), actor, reviewID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (rc *ReviewController) SetApproval(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "reviewId", "review ID")
	if !ok {
		return
	}
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approved is required"})
		return
	}

	if err := rc.service.SetApproval(c.Request.Context(), actor, reviewID, *req.Approved); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review updated successfully"})
}
