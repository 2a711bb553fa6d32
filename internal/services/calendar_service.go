package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atlasgeo/fieldcheck/config"
	"github.com/atlasgeo/fieldcheck/internal/apperrors"
	"github.com/atlasgeo/fieldcheck/internal/checklist"
	"github.com/atlasgeo/fieldcheck/internal/models"
)

// ticketEventPrefix marks calendar events that should become tickets.
const ticketEventPrefix = "PROJ-"

var oauthScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// CalendarEvent is the subset of a provider event the sync cares about.
// Start keeps the provider's string form: RFC3339 for timed events, a bare
// date for all-day events.
type CalendarEvent struct {
	ID      string
	Summary string
	Start   string
	Link    string
}

// EventSource lists events from the user's calendar. The production source
// talks to the Google Calendar API; tests substitute a fake.
type EventSource interface {
	ListEvents(ctx context.Context, token *oauth2.Token, calendarID string, timeMin, timeMax time.Time) ([]CalendarEvent, error)
}

type CalendarService struct {
	db       *gorm.DB
	google   *config.GoogleConfig
	tickets  *TicketService
	source   EventSource
	endpoint oauth2.Endpoint
	log      zerolog.Logger
}

func NewCalendarService(db *gorm.DB, gcfg *config.GoogleConfig, tickets *TicketService, log zerolog.Logger) *CalendarService {
	s := &CalendarService{
		db:       db,
		google:   gcfg,
		tickets:  tickets,
		endpoint: google.Endpoint,
		log:      log,
	}
	s.source = &googleEventSource{service: s}
	return s
}

// DashboardURL is where the OAuth callback sends the browser afterwards.
func (s *CalendarService) DashboardURL() string {
	return s.google.DashboardURL
}

func (s *CalendarService) oauthConfig() (*oauth2.Config, error) {
	if s.google.ClientID == "" || s.google.ClientSecret == "" {
		return nil, apperrors.New(apperrors.KindConfiguration, "google oauth is not configured")
	}
	return &oauth2.Config{
		ClientID:     s.google.ClientID,
		ClientSecret: s.google.ClientSecret,
		RedirectURL:  s.google.RedirectURI,
		Scopes:       oauthScopes,
		Endpoint:     s.endpoint,
	}, nil
}

// ConsentURL builds the consent-screen redirect for the three-legged flow.
// The user id travels in the state parameter so the callback can key the
// stored credential.
func (s *CalendarService) ConsentURL(userID uuid.UUID) (string, error) {
	cfg, err := s.oauthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(userID.String(),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// ExchangeCode trades the authorization code for tokens and upserts the
// credential row keyed by user id.
func (s *CalendarService) ExchangeCode(ctx context.Context, code string, userID uuid.UUID) error {
	cfg, err := s.oauthConfig()
	if err != nil {
		return err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("oauth code exchange failed")
		return apperrors.Wrap(apperrors.KindExternalService, "failed to exchange authorization code", err)
	}

	scope, _ := token.Extra("scope").(string)
	cred := models.GoogleToken{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scope:        scope,
		CalendarID:   "primary",
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		cred.TokenExpiry = &expiry
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "token_expiry", "scope", "updated_at",
		}),
	}).Create(&cred).Error
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("credential upsert failed")
		return apperrors.Wrap(apperrors.KindPersistence, "failed to store google tokens", err)
	}
	return nil
}

type CreatedTicket struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	TicketName string    `json:"ticket_name"`
	EventStart string    `json:"event_start,omitempty"`
}

type SyncResult struct {
	MatchedEvents int             `json:"matched_events"`
	NewTickets    []CreatedTicket `json:"new_tickets"`
}

// Sync mirrors qualifying calendar events into tickets. It is idempotent
// against an unchanged event set: tickets already linked to an event id are
// skipped. The membership check is a scan, not a store constraint, so two
// concurrent syncs can both pass it and duplicate a ticket; single-scheduler
// invocation is assumed.
func (s *CalendarService) Sync(ctx context.Context, userID uuid.UUID, userEmail string) (*SyncResult, error) {
	cfg, err := s.oauthConfig()
	if err != nil {
		return nil, err
	}

	var cred models.GoogleToken
	if err := s.db.Where("user_id = ?", userID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotConnected, "google calendar is not connected")
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to load google credential", err)
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	}
	if cred.TokenExpiry != nil {
		token.Expiry = *cred.TokenExpiry
	}

	if cred.TokenExpiry != nil && cred.TokenExpiry.Before(time.Now()) {
		fresh, err := cfg.TokenSource(ctx, token).Token()
		if err != nil {
			s.log.Error().Err(err).Str("user_id", userID.String()).Msg("token refresh failed")
			return nil, apperrors.Wrap(apperrors.KindExternalService, "failed to refresh google token", err)
		}
		token = fresh

		updates := map[string]interface{}{
			"access_token": fresh.AccessToken,
			"token_expiry": nil,
		}
		if !fresh.Expiry.IsZero() {
			updates["token_expiry"] = fresh.Expiry.UTC()
		}
		if err := s.db.Model(&models.GoogleToken{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			s.log.Error().Err(err).Str("user_id", userID.String()).Msg("refreshed token persist failed")
			return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to persist refreshed token", err)
		}
	}

	calendarID := cred.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	now := time.Now()
	timeMin := now.AddDate(0, 0, -7)
	timeMax := now.AddDate(0, 0, 30)

	events, err := s.source.ListEvents(ctx, token, calendarID, timeMin, timeMax)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("calendar event listing failed")
		return nil, apperrors.Wrap(apperrors.KindExternalService, "failed to list calendar events", err)
	}

	var matched []CalendarEvent
	for _, ev := range events {
		if strings.HasPrefix(ev.Summary, ticketEventPrefix) {
			matched = append(matched, ev)
		}
	}
	s.log.Info().Int("matched", len(matched)).Str("user_id", userID.String()).Msg("calendar events matched prefix")

	var existingIDs []string
	if err := s.db.Model(&models.Ticket{}).
		Where("calendar_event_id IS NOT NULL").
		Pluck("calendar_event_id", &existingIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to load existing event links", err)
	}
	existing := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}

	result := &SyncResult{MatchedEvents: len(matched), NewTickets: []CreatedTicket{}}
	var email *string
	if userEmail != "" {
		email = &userEmail
	}
	for _, ev := range matched {
		if ev.ID == "" {
			continue
		}
		if _, ok := existing[ev.ID]; ok {
			s.log.Debug().Str("event", ev.Summary).Msg("event already has a ticket, skipping")
			continue
		}

		ticket, err := s.tickets.Create(CreateTicketRequest{
			Name:   ev.Summary,
			Steps:  checklist.Steps,
			UserID: &userID,
			Email:  email,
			Calendar: &CalendarLink{
				EventID: ev.ID,
				Summary: ev.Summary,
				Start:   ev.Start,
				Link:    ev.Link,
			},
		})
		if err != nil {
			s.log.Error().Err(err).Str("event", ev.Summary).Msg("ticket creation from event failed")
			continue
		}

		result.NewTickets = append(result.NewTickets, CreatedTicket{
			TicketID:   ticket.ID,
			TicketName: ticket.Name,
			EventStart: ev.Start,
		})
		s.log.Info().Str("ticket_id", ticket.ID.String()).Str("event", ev.Summary).Msg("created ticket from calendar event")
	}

	return result, nil
}

// googleEventSource backs EventSource with the Google Calendar API.
type googleEventSource struct {
	service *CalendarService
}

func (g *googleEventSource) ListEvents(ctx context.Context, token *oauth2.Token, calendarID string, timeMin, timeMax time.Time) ([]CalendarEvent, error) {
	cfg, err := g.service.oauthConfig()
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev := CalendarEvent{
			ID:      item.Id,
			Summary: item.Summary,
			Link:    item.HtmlLink,
		}
		if item.Start != nil {
			if item.Start.DateTime != "" {
				ev.Start = item.Start.DateTime
			} else {
				ev.Start = item.Start.Date
			}
		}
		events = append(events, ev)
	}
	return events, nil
}
