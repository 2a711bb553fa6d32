package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasgeo/fieldcheck/internal/helpers"
	"github.com/atlasgeo/fieldcheck/internal/middleware"
)

type CompletionNotificationRequest struct {
	TicketName     string `json:"ticket_name" binding:"required"`
	CompletedSteps int    `json:"completed_steps" binding:"required"`
	TotalSteps     int    `json:"total_steps" binding:"required"`
}

func SendCompletionNotification(c *gin.Context) {
	var req CompletionNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	svc := middleware.GetSlackService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Slack service not found.")
		return
	}

	if err := svc.NotifyCompletion(c.Request.Context(), req.TicketName, req.CompletedSteps, req.TotalSteps); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification sent successfully."})
}
