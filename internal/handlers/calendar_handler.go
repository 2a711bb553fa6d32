package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/atlasgeo/fieldcheck/internal/helpers"
	"github.com/atlasgeo/fieldcheck/internal/middleware"
)

// ConnectGoogle starts the three-legged flow: 302 to the provider's consent
// screen with the user id carried in the state parameter.
func ConnectGoogle(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "User ID is required.")
		return
	}

	svc := middleware.GetCalendarService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Calendar service not found.")
		return
	}

	consentURL, err := svc.ConsentURL(userID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.Redirect(http.StatusFound, consentURL)
}

// GoogleCallback receives the provider redirect, exchanges the code, and
// sends the browser back to the dashboard with a success or error flag.
func GoogleCallback(c *gin.Context) {
	svc := middleware.GetCalendarService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Calendar service not found.")
		return
	}
	dashboard := svc.DashboardURL()

	if errParam := c.Query("error"); errParam != "" {
		c.Redirect(http.StatusFound, dashboard+"?error=google_auth_failed")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.Redirect(http.StatusFound, dashboard+"?error=no_code")
		return
	}

	userID, err := uuid.Parse(state)
	if err != nil {
		c.Redirect(http.StatusFound, dashboard+"?error=callback_failed")
		return
	}

	if err := svc.ExchangeCode(c.Request.Context(), code, userID); err != nil {
		c.Redirect(http.StatusFound, dashboard+"?error="+url.QueryEscape("token_storage_failed"))
		return
	}

	c.Redirect(http.StatusFound, dashboard+"?google_connected=true")
}

func SyncCalendar(c *gin.Context) {
	userIDValue, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	userID, err := uuid.Parse(userIDValue.(string))
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	var email string
	if v, exists := c.Get("email"); exists {
		email, _ = v.(string)
	}

	svc := middleware.GetCalendarService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Calendar service not found.")
		return
	}

	result, err := svc.Sync(c.Request.Context(), userID, email)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Calendar synced successfully.",
		"matched_events": result.MatchedEvents,
		"new_tickets":    result.NewTickets,
	})
}
