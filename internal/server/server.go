package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlasgeo/fieldcheck/config"
	"github.com/atlasgeo/fieldcheck/internal/handlers"
	"github.com/atlasgeo/fieldcheck/internal/logger"
	"github.com/atlasgeo/fieldcheck/internal/middleware"
	"github.com/atlasgeo/fieldcheck/internal/services"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	gcfg, err := config.LoadGoogleConfig()
	if err != nil {
		return fmt.Errorf("failed to load google config: %v", err)
	}

	scfg, err := config.LoadSlackConfig()
	if err != nil {
		return fmt.Errorf("failed to load slack config: %v", err)
	}

	log := logger.New(os.Getenv("APP_ENV"))

	r := gin.Default()

	setupRoutes(r, db, gcfg, scfg, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, gcfg *config.GoogleConfig, scfg *config.SlackConfig, log zerolog.Logger) {
	ticketService := services.NewTicketService(db, log)
	calendarService := services.NewCalendarService(db, gcfg, ticketService, log)
	slackService := services.NewSlackService(scfg, log)

	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.ServicesMiddleware(ticketService, calendarService, slackService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
		public.POST("/logout", handlers.Logout)
		public.POST("/password-reset", handlers.RequestPasswordReset)
		public.POST("/password-reset/confirm", handlers.ConfirmPasswordReset)

		googleAuth := public.Group("/auth/google")
		{
			googleAuth.GET("/connect", handlers.ConnectGoogle)
			googleAuth.GET("/callback", handlers.GoogleCallback)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.PUT("/password", handlers.UpdatePassword)

		tickets := protected.Group("/tickets")
		{
			tickets.GET("", handlers.ListTickets)
			tickets.POST("", handlers.CreateTicket)
			tickets.GET("/:id", handlers.GetTicket)
			tickets.DELETE("/:id", handlers.DeleteTicket)
			tickets.PUT("/:id/steps/:stepId", handlers.UpdateTicketStep)
			tickets.PUT("/:id/assignee", handlers.ReassignTicket)
		}

		protected.GET("/users", handlers.ListUsers)
		protected.POST("/calendar/sync", handlers.SyncCalendar)
		protected.POST("/notifications/completion", handlers.SendCompletionNotification)
	}
}
