package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/atlasgeo/fieldcheck/internal/services"
)

func ServicesMiddleware(tickets *services.TicketService, cal *services.CalendarService, slack *services.SlackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ticket_service", tickets)
		c.Set("calendar_service", cal)
		c.Set("slack_service", slack)
		c.Next()
	}
}

func GetTicketService(c *gin.Context) *services.TicketService {
	svc, exists := c.Get("ticket_service")
	if !exists {
		return nil
	}
	return svc.(*services.TicketService)
}

func GetCalendarService(c *gin.Context) *services.CalendarService {
	svc, exists := c.Get("calendar_service")
	if !exists {
		return nil
	}
	return svc.(*services.CalendarService)
}

func GetSlackService(c *gin.Context) *services.SlackService {
	svc, exists := c.Get("slack_service")
	if !exists {
		return nil
	}
	return svc.(*services.SlackService)
}
