package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is a tracked job seeded from the checklist template. CompletedSteps
// and IsComplete are caches derived from the step rows; they are only written
// by the progress recompute, never mutated independently.
type Ticket struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name           string    `gorm:"not null" json:"ticket_name"`
	TotalSteps     int       `gorm:"not null" json:"total_steps"`
	CompletedSteps int       `gorm:"not null;default:0" json:"completed_steps"`
	IsComplete     bool      `gorm:"not null;default:false" json:"is_complete"`

	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedByEmail *string    `json:"created_by_email"`

	AssignedToUserID *uuid.UUID `gorm:"type:uuid" json:"assigned_to_user_id"`
	AssignedToEmail  *string    `json:"assigned_to_email"`

	CalendarEventID      *string `gorm:"index" json:"calendar_event_id"`
	CalendarEventSummary *string `json:"calendar_event_summary"`
	CalendarEventStart   *string `json:"calendar_event_start"`
	CalendarEventLink    *string `json:"calendar_event_link"`
	AutoCreated          bool    `gorm:"not null;default:false" json:"auto_created"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Steps []TicketStep `gorm:"foreignKey:TicketID" json:"steps,omitempty"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
