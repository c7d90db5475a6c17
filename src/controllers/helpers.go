package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the {"error": "..."} envelope.
// Unexpected errors are attached to the context for the request logger and never shown.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrDuplicateActiveRequest),
		errors.Is(err, services.ErrBookAlreadyLent),
		errors.Is(err, services.ErrInvalidReference):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFoundOrNotApproved):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or not approved"})
	case errors.Is(err, services.ErrNotFoundOrProcessed):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Request not found or already processed"})
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
	case errors.Is(err, services.ErrUnauthorized):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// actorFrom turns the token claims into the services' view of the caller
func actorFrom(ctx *gin.Context) (services.Actor, bool) {
	claims, ok := middleware.CurrentClaims(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return services.Actor{}, false
	}
	return services.Actor{UserID: claims.UserID, Role: claims.Role, ClubID: claims.ClubID}, true
}

// paramID parses a positive integer path parameter, answering 400 when it is not one
func paramID(ctx *gin.Context, name, label string) (int, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label})
		return 0, false
	}
	return id, true
}
