package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoogleToken holds one user's calendar OAuth credential. One row per user,
// upserted on reconnect.
type GoogleToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	AccessToken  string     `gorm:"not null" json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"token_expiry"`
	Scope        string     `json:"scope"`
	CalendarID   string     `gorm:"not null;default:'primary'" json:"calendar_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (GoogleToken) TableName() string {
	return "user_google_tokens"
}

func (token *GoogleToken) BeforeCreate(tx *gorm.DB) (err error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	return
}
