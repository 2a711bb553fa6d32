package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasgeo/fieldcheck/config"
	"github.com/atlasgeo/fieldcheck/internal/apperrors"
)

func TestNotifyCompletionPostsBlockMessage(t *testing.T) {
	var received slackMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewSlackService(&config.SlackConfig{WebhookURL: server.URL}, zerolog.Nop())

	err := svc.NotifyCompletion(context.Background(), "PROJ-42 Kickoff", 20, 20)
	require.NoError(t, err)

	require.Len(t, received.Blocks, 4)
	assert.Equal(t, "header", received.Blocks[0].Type)
	assert.Equal(t, "Ticket Checklist Completed", received.Blocks[0].Text.Text)

	require.Len(t, received.Blocks[1].Fields, 4)
	assert.Contains(t, received.Blocks[1].Fields[0].Text, "PROJ-42 Kickoff")
	assert.Contains(t, received.Blocks[1].Fields[2].Text, "20/20 steps")

	assert.Equal(t, "divider", received.Blocks[2].Type)
	assert.Equal(t, "context", received.Blocks[3].Type)
}

func TestNotifyCompletionNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewSlackService(&config.SlackConfig{WebhookURL: server.URL}, zerolog.Nop())

	err := svc.NotifyCompletion(context.Background(), "PROJ-1", 20, 20)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindExternalService, apperrors.KindOf(err))
}

func TestNotifyCompletionWithoutWebhookURL(t *testing.T) {
	svc := NewSlackService(&config.SlackConfig{}, zerolog.Nop())

	err := svc.NotifyCompletion(context.Background(), "PROJ-1", 20, 20)
	assert.True(t, apperrors.IsConfiguration(err))
}
