package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ClubController struct {
	service *services.ClubService
}

func NewClubController(service *services.ClubService) *ClubController {
	return &ClubController{service: service}
}

func (cc *ClubController) CreateClub(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var club models.ClubModel
	if err := c.ShouldBindJSON(&club); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := cc.service.CreateClub(c.Request.Context(), actor, &club)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (cc *ClubController) GetAllClubs(c *gin.Context) {
	clubs, err := cc.service.GetAllClubs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (cc *ClubController) GetClubByID(c *gin.Context) {
	id, ok := paramID(c, "id", "club ID")
	if !ok {
		return
	}

	club, err := cc.service.GetClubByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (cc *ClubController) GetMembers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "club ID")
	if !ok {
		return
	}

	members, err := cc.service.GetMembers(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// DownloadReport sends the club's transactions as an xlsx attachment
func (cc *ClubController) DownloadReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "club ID")
	if !ok {
		return
	}

	report, err := cc.service.ExportTransactionsReport(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("club_%d_transactions_%s.xlsx", id, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, report)
}
