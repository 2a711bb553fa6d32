package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlasgeo/fieldcheck/internal/apperrors"
	"github.com/atlasgeo/fieldcheck/internal/checklist"
	"github.com/atlasgeo/fieldcheck/internal/models"
)

type TicketService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewTicketService(db *gorm.DB, log zerolog.Logger) *TicketService {
	return &TicketService{db: db, log: log}
}

// CalendarLink carries the origin-event fields for tickets materialized from
// a calendar event.
type CalendarLink struct {
	EventID string
	Summary string
	Start   string
	Link    string
}

// CreateTicketRequest holds the data needed to create a new ticket.
type CreateTicketRequest struct {
	Name     string
	Steps    []checklist.Step
	UserID   *uuid.UUID
	Email    *string
	Calendar *CalendarLink
}

// Create inserts the ticket row, then bulk-inserts one step row per template
// entry. The two inserts are not atomic: a steps-insert failure leaves the
// ticket row behind without steps, and is still reported as overall failure.
func (s *TicketService) Create(req CreateTicketRequest) (*models.Ticket, error) {
	if req.Name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "ticket name is required")
	}
	if len(req.Steps) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "ticket requires at least one checklist step")
	}

	ticket := models.Ticket{
		Name:           req.Name,
		TotalSteps:     len(req.Steps),
		CompletedSteps: 0,
		IsComplete:     false,
		UserID:         req.UserID,
		CreatedByEmail: req.Email,
	}
	if req.Calendar != nil {
		ticket.CalendarEventID = &req.Calendar.EventID
		ticket.CalendarEventSummary = &req.Calendar.Summary
		if req.Calendar.Start != "" {
			ticket.CalendarEventStart = &req.Calendar.Start
		}
		if req.Calendar.Link != "" {
			ticket.CalendarEventLink = &req.Calendar.Link
		}
		ticket.AutoCreated = true
	}

	if err := s.db.Create(&ticket).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_name", req.Name).Msg("ticket insert failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to create ticket", err)
	}

	steps := make([]models.TicketStep, 0, len(req.Steps))
	for _, st := range req.Steps {
		steps = append(steps, models.TicketStep{
			TicketID:    ticket.ID,
			StepID:      st.ID,
			Title:       st.Title,
			Description: st.Description,
			IsCompleted: false,
		})
	}
	if err := s.db.Create(&steps).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticket.ID.String()).Msg("ticket steps insert failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to create ticket steps", err)
	}

	return &ticket, nil
}

// GetByID returns the ticket and its steps ordered by step_id ascending.
func (s *TicketService) GetByID(ticketID uuid.UUID) (*models.Ticket, []models.TicketStep, error) {
	var ticket models.Ticket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.New(apperrors.KindNotFound, "ticket not found")
		}
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("ticket lookup failed")
		return nil, nil, apperrors.Wrap(apperrors.KindPersistence, "failed to load ticket", err)
	}

	var steps []models.TicketStep
	if err := s.db.Where("ticket_id = ?", ticketID).Order("step_id asc").Find(&steps).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("ticket steps lookup failed")
		return nil, nil, apperrors.Wrap(apperrors.KindPersistence, "failed to load ticket steps", err)
	}

	return &ticket, steps, nil
}

// SetStepCompletion flips one step's completion flag, stamps or clears its
// completion time, then re-derives the ticket's cached progress from the full
// step set. The recompute is a read-modify-write without locking; concurrent
// completions converge once both writes land.
func (s *TicketService) SetStepCompletion(ticketID uuid.UUID, stepID int, completed bool) (*models.Ticket, error) {
	updates := map[string]interface{}{
		"is_completed": completed,
		"completed_at": nil,
	}
	if completed {
		updates["completed_at"] = time.Now().UTC()
	}

	result := s.db.Model(&models.TicketStep{}).
		Where("ticket_id = ? AND step_id = ?", ticketID, stepID).
		Updates(updates)
	if result.Error != nil {
		s.log.Error().Err(result.Error).Str("ticket_id", ticketID.String()).Int("step_id", stepID).Msg("step update failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to update step", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "step not found")
	}

	return s.recomputeProgress(ticketID)
}

func (s *TicketService) recomputeProgress(ticketID uuid.UUID) (*models.Ticket, error) {
	var steps []models.TicketStep
	if err := s.db.Where("ticket_id = ?", ticketID).Find(&steps).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("progress recompute read failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to read steps for progress", err)
	}

	completed := 0
	for _, st := range steps {
		if st.IsCompleted {
			completed++
		}
	}
	isComplete := completed == len(steps)

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"completed_steps": completed,
		"is_complete":     isComplete,
		"completed_at":    nil,
		"updated_at":      now,
	}
	if isComplete {
		updates["completed_at"] = now
	}

	if err := s.db.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(updates).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("progress recompute write failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to update ticket progress", err)
	}

	var ticket models.Ticket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to reload ticket", err)
	}
	return &ticket, nil
}

// ListIncomplete returns open tickets newest first. With includeSteps each
// ticket's steps are loaded with one query per ticket; fine at the expected
// scale of tens of open tickets.
func (s *TicketService) ListIncomplete(includeSteps bool) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("is_complete = ?", false).Order("created_at desc").Find(&tickets).Error; err != nil {
		s.log.Error().Err(err).Msg("incomplete tickets query failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to list tickets", err)
	}

	if includeSteps {
		for i := range tickets {
			var steps []models.TicketStep
			if err := s.db.Where("ticket_id = ?", tickets[i].ID).Order("step_id asc").Find(&steps).Error; err != nil {
				s.log.Error().Err(err).Str("ticket_id", tickets[i].ID.String()).Msg("ticket steps query failed")
				return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to load ticket steps", err)
			}
			tickets[i].Steps = steps
		}
	}

	return tickets, nil
}

// ListAll returns every ticket newest first, for the history view.
func (s *TicketService) ListAll() ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Order("created_at desc").Find(&tickets).Error; err != nil {
		s.log.Error().Err(err).Msg("tickets query failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to list tickets", err)
	}
	return tickets, nil
}

// Delete removes the ticket's steps first, then the ticket row. If the ticket
// delete fails after the steps are gone the ticket row survives without
// steps; that orphan state is not repaired here.
func (s *TicketService) Delete(ticketID uuid.UUID) error {
	var ticket models.Ticket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.KindNotFound, "ticket not found")
		}
		return apperrors.Wrap(apperrors.KindPersistence, "failed to load ticket", err)
	}

	if err := s.db.Where("ticket_id = ?", ticketID).Delete(&models.TicketStep{}).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("step delete failed")
		return apperrors.Wrap(apperrors.KindPersistence, "failed to delete ticket steps", err)
	}
	if err := s.db.Where("id = ?", ticketID).Delete(&models.Ticket{}).Error; err != nil {
		s.log.Error().Err(err).Str("ticket_id", ticketID.String()).Msg("ticket delete failed")
		return apperrors.Wrap(apperrors.KindPersistence, "failed to delete ticket", err)
	}
	return nil
}

// Reassign overwrites the assignee fields. The user id is not validated
// against the user table.
func (s *TicketService) Reassign(ticketID, userID uuid.UUID, userEmail string) (*models.Ticket, error) {
	result := s.db.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(map[string]interface{}{
		"assigned_to_user_id": userID,
		"assigned_to_email":   userEmail,
		"updated_at":          time.Now().UTC(),
	})
	if result.Error != nil {
		s.log.Error().Err(result.Error).Str("ticket_id", ticketID.String()).Msg("reassign failed")
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to reassign ticket", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "ticket not found")
	}

	var ticket models.Ticket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to reload ticket", err)
	}
	return &ticket, nil
}

type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ListUsers prefers the user table; if that query fails it derives the list
// from creator and assignee pairs already present on tickets. A user who
// never touched a ticket is invisible on the fallback path.
func (s *TicketService) ListUsers() ([]UserRef, error) {
	var users []models.User
	if err := s.db.Order("email asc").Find(&users).Error; err != nil {
		s.log.Warn().Err(err).Msg("user table lookup failed, deriving users from tickets")
		return s.usersFromTickets()
	}

	refs := make([]UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, UserRef{ID: u.ID, Email: u.Email})
	}
	return refs, nil
}

func (s *TicketService) usersFromTickets() ([]UserRef, error) {
	var tickets []models.Ticket
	if err := s.db.Find(&tickets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to derive users from tickets", err)
	}

	seen := make(map[uuid.UUID]struct{})
	var refs []UserRef
	add := func(id *uuid.UUID, email *string) {
		if id == nil || email == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		refs = append(refs, UserRef{ID: *id, Email: *email})
	}
	for i := range tickets {
		add(tickets[i].UserID, tickets[i].CreatedByEmail)
		add(tickets[i].AssignedToUserID, tickets[i].AssignedToEmail)
	}
	return refs, nil
}
