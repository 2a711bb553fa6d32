package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/atlasgeo/fieldcheck/config"
	"github.com/atlasgeo/fieldcheck/internal/apperrors"
	"github.com/atlasgeo/fieldcheck/internal/checklist"
	"github.com/atlasgeo/fieldcheck/internal/models"
)

type fakeEventSource struct {
	events []CalendarEvent
	err    error
	calls  int
}

func (f *fakeEventSource) ListEvents(ctx context.Context, token *oauth2.Token, calendarID string, timeMin, timeMax time.Time) ([]CalendarEvent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func newCalendarService(t *testing.T, db *gorm.DB, source EventSource) *CalendarService {
	t.Helper()
	gcfg := &config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/v1/auth/google/callback",
		DashboardURL: "/dashboard",
	}
	tickets := NewTicketService(db, zerolog.Nop())
	svc := NewCalendarService(db, gcfg, tickets, zerolog.Nop())
	if source != nil {
		svc.source = source
	}
	return svc
}

func connectUser(t *testing.T, db *gorm.DB, userID uuid.UUID, expiry *time.Time) {
	t.Helper()
	cred := models.GoogleToken{
		UserID:       userID,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenExpiry:  expiry,
		CalendarID:   "primary",
	}
	require.NoError(t, db.Create(&cred).Error)
}

func futureExpiry() *time.Time {
	expiry := time.Now().Add(time.Hour)
	return &expiry
}

func TestSyncCreatesTicketsForPrefixedEvents(t *testing.T) {
	db := newTestDB(t)
	source := &fakeEventSource{events: []CalendarEvent{
		{ID: "ev-1", Summary: "PROJ-42 Kickoff", Start: "2026-09-01T09:00:00Z", Link: "https://calendar.example/ev-1"},
		{ID: "ev-2", Summary: "Standup", Start: "2026-09-01T10:00:00Z"},
	}}
	svc := newCalendarService(t, db, source)

	userID := uuid.New()
	connectUser(t, db, userID, futureExpiry())

	result, err := svc.Sync(context.Background(), userID, "tech@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedEvents)
	require.Len(t, result.NewTickets, 1)
	assert.Equal(t, "PROJ-42 Kickoff", result.NewTickets[0].TicketName)

	var ticket models.Ticket
	require.NoError(t, db.Where("calendar_event_id = ?", "ev-1").First(&ticket).Error)
	assert.True(t, ticket.AutoCreated)
	assert.Equal(t, len(checklist.Steps), ticket.TotalSteps)
	require.NotNil(t, ticket.CalendarEventSummary)
	assert.Equal(t, "PROJ-42 Kickoff", *ticket.CalendarEventSummary)
	require.NotNil(t, ticket.CalendarEventStart)
	assert.Equal(t, "2026-09-01T09:00:00Z", *ticket.CalendarEventStart)
	require.NotNil(t, ticket.CalendarEventLink)
	assert.Equal(t, "https://calendar.example/ev-1", *ticket.CalendarEventLink)
	require.NotNil(t, ticket.CreatedByEmail)
	assert.Equal(t, "tech@example.com", *ticket.CreatedByEmail)

	// The non-prefixed event never becomes a ticket.
	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncIsIdempotentForUnchangedEvents(t *testing.T) {
	db := newTestDB(t)
	source := &fakeEventSource{events: []CalendarEvent{
		{ID: "ev-1", Summary: "PROJ-1 Survey", Start: "2026-09-02T08:00:00Z"},
		{ID: "ev-2", Summary: "PROJ-2 Locate", Start: "2026-09-03T08:00:00Z"},
	}}
	svc := newCalendarService(t, db, source)

	userID := uuid.New()
	connectUser(t, db, userID, futureExpiry())

	first, err := svc.Sync(context.Background(), userID, "tech@example.com")
	require.NoError(t, err)
	assert.Len(t, first.NewTickets, 2)

	second, err := svc.Sync(context.Background(), userID, "tech@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, second.MatchedEvents)
	assert.Empty(t, second.NewTickets)

	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSyncSkipsEventsWithoutID(t *testing.T) {
	db := newTestDB(t)
	source := &fakeEventSource{events: []CalendarEvent{
		{ID: "", Summary: "PROJ-9 Ghost"},
	}}
	svc := newCalendarService(t, db, source)

	userID := uuid.New()
	connectUser(t, db, userID, futureExpiry())

	result, err := svc.Sync(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedEvents)
	assert.Empty(t, result.NewTickets)
}

func TestSyncSurfacesListingFailure(t *testing.T) {
	db := newTestDB(t)
	source := &fakeEventSource{err: errors.New("quota exceeded")}
	svc := newCalendarService(t, db, source)

	userID := uuid.New()
	connectUser(t, db, userID, futureExpiry())

	_, err := svc.Sync(context.Background(), userID, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindExternalService, apperrors.KindOf(err))
}

func TestSyncWithoutCredentialFailsNotConnected(t *testing.T) {
	db := newTestDB(t)
	svc := newCalendarService(t, db, &fakeEventSource{})

	_, err := svc.Sync(context.Background(), uuid.New(), "")
	assert.True(t, apperrors.IsNotConnected(err))
}

func TestSyncWithoutOAuthConfigFails(t *testing.T) {
	db := newTestDB(t)
	tickets := NewTicketService(db, zerolog.Nop())
	svc := NewCalendarService(db, &config.GoogleConfig{}, tickets, zerolog.Nop())

	_, err := svc.Sync(context.Background(), uuid.New(), "")
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestSyncRefreshesExpiredToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-token"}`))
	}))
	defer tokenServer.Close()

	db := newTestDB(t)
	source := &fakeEventSource{}
	svc := newCalendarService(t, db, source)
	svc.endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}

	userID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	connectUser(t, db, userID, &expired)

	_, err := svc.Sync(context.Background(), userID, "")
	require.NoError(t, err)

	var cred models.GoogleToken
	require.NoError(t, db.Where("user_id = ?", userID).First(&cred).Error)
	assert.Equal(t, "fresh-token", cred.AccessToken)
	require.NotNil(t, cred.TokenExpiry)
	assert.True(t, cred.TokenExpiry.After(time.Now()))
	assert.Equal(t, 1, source.calls)
}

func TestConsentURLCarriesUserState(t *testing.T) {
	db := newTestDB(t)
	svc := newCalendarService(t, db, nil)

	userID := uuid.New()
	consentURL, err := svc.ConsentURL(userID)
	require.NoError(t, err)
	assert.Contains(t, consentURL, "state="+userID.String())
	assert.Contains(t, consentURL, "access_type=offline")
	assert.Contains(t, consentURL, "prompt=consent")
}

func TestConsentURLWithoutConfigFails(t *testing.T) {
	db := newTestDB(t)
	tickets := NewTicketService(db, zerolog.Nop())
	svc := NewCalendarService(db, &config.GoogleConfig{}, tickets, zerolog.Nop())

	_, err := svc.ConsentURL(uuid.New())
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestExchangeCodeUpsertsCredential(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"first-token","token_type":"Bearer","expires_in":3600,"refresh_token":"first-refresh","scope":"calendar.readonly"}`))
	}))
	defer tokenServer.Close()

	db := newTestDB(t)
	svc := newCalendarService(t, db, nil)
	svc.endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}

	userID := uuid.New()
	require.NoError(t, svc.ExchangeCode(context.Background(), "auth-code", userID))

	var cred models.GoogleToken
	require.NoError(t, db.Where("user_id = ?", userID).First(&cred).Error)
	assert.Equal(t, "first-token", cred.AccessToken)
	assert.Equal(t, "first-refresh", cred.RefreshToken)
	assert.Equal(t, "primary", cred.CalendarID)

	// Reconnecting overwrites the stored credential instead of duplicating it.
	require.NoError(t, svc.ExchangeCode(context.Background(), "auth-code-2", userID))

	var count int64
	require.NoError(t, db.Model(&models.GoogleToken{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
