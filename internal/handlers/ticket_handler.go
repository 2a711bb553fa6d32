package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/atlasgeo/fieldcheck/internal/checklist"
	"github.com/atlasgeo/fieldcheck/internal/helpers"
	"github.com/atlasgeo/fieldcheck/internal/middleware"
	"github.com/atlasgeo/fieldcheck/internal/services"
)

type TicketRequest struct {
	Name string `json:"ticket_name" binding:"required"`
}

type StepUpdateRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type ReassignRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Email  string    `json:"email" binding:"required,email"`
}

func currentIdentity(c *gin.Context) (*uuid.UUID, *string) {
	var userID *uuid.UUID
	var email *string
	if v, exists := c.Get("user_id"); exists {
		if s, ok := v.(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				userID = &id
			}
		}
	}
	if v, exists := c.Get("email"); exists {
		if s, ok := v.(string); ok && s != "" {
			email = &s
		}
	}
	return userID, email
}

func CreateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	userID, email := currentIdentity(c)
	ticket, err := svc.Create(services.CreateTicketRequest{
		Name:   req.Name,
		Steps:  checklist.Steps,
		UserID: userID,
		Email:  email,
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Ticket created successfully.",
		"ticket_id": ticket.ID,
	})
}

func GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return
	}

	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	ticket, steps, err := svc.GetByID(ticketID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket": ticket,
		"steps":  steps,
	})
}

func ListTickets(c *gin.Context) {
	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	if c.Query("all") == "true" {
		tickets, err := svc.ListAll()
		if err != nil {
			helpers.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": tickets})
		return
	}

	tickets, err := svc.ListIncomplete(c.Query("include_steps") == "true")
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func UpdateTicketStep(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return
	}
	stepID, err := helpers.StringToInt(c.Param("stepId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid step id.")
		return
	}

	var req StepUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	ticket, err := svc.SetStepCompletion(ticketID, stepID, *req.Completed)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Step updated successfully.",
		"ticket":  ticket,
	})
}

func DeleteTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return
	}

	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	if err := svc.Delete(ticketID); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted successfully."})
}

func ReassignTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	ticket, err := svc.Reassign(ticketID, req.UserID, req.Email)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket reassigned successfully.",
		"ticket":  ticket,
	})
}

func ListUsers(c *gin.Context) {
	svc := middleware.GetTicketService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return
	}

	users, err := svc.ListUsers()
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
