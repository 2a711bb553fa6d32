package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketStep is one checklist item of a ticket. StepID orders steps within a
// ticket and matches the template id; it is not globally unique. The step set
// is fixed at ticket creation and only ever flips IsCompleted.
type TicketStep struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TicketID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"ticket_id"`
	StepID      int        `gorm:"not null" json:"step_id"`
	Title       string     `gorm:"not null" json:"step_title"`
	Description string     `json:"step_description"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (step *TicketStep) BeforeCreate(tx *gorm.DB) (err error) {
	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	return
}
