package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/atlasgeo/fieldcheck/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

// GoogleConfig carries the calendar OAuth client credentials. Empty values
// make the dependent operations fail with a configuration error instead of
// attempting the call.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	DashboardURL string
}

func LoadGoogleConfig() (*GoogleConfig, error) {
	dashboard := os.Getenv("DASHBOARD_URL")
	if dashboard == "" {
		dashboard = "/dashboard"
	}
	return &GoogleConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		DashboardURL: dashboard,
	}, nil
}

type SlackConfig struct {
	WebhookURL string
}

func LoadSlackConfig() (*SlackConfig, error) {
	return &SlackConfig{
		WebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.TicketStep{}, &models.GoogleToken{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
