package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlasgeo/fieldcheck/config"
	"github.com/atlasgeo/fieldcheck/internal/apperrors"
)

type SlackService struct {
	cfg    *config.SlackConfig
	client *http.Client
	log    zerolog.Logger
}

func NewSlackService(cfg *config.SlackConfig, log zerolog.Logger) *SlackService {
	return &SlackService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// NotifyCompletion posts a completion message to the configured webhook.
// Best effort: any non-2xx response or network failure is returned to the
// caller and never retried.
func (s *SlackService) NotifyCompletion(ctx context.Context, ticketName string, completedSteps, totalSteps int) error {
	if s.cfg.WebhookURL == "" {
		return apperrors.New(apperrors.KindConfiguration, "slack webhook url is not configured")
	}

	msg := slackMessage{
		Text: "*Ticket Checklist Completed*",
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{Type: "plain_text", Text: "Ticket Checklist Completed", Emoji: true},
			},
			{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: fmt.Sprintf("*Ticket:*\n%s", ticketName)},
					{Type: "mrkdwn", Text: "*Status:*\nAll steps completed"},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Progress:*\n%d/%d steps", completedSteps, totalSteps)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Completed:*\n%s", time.Now().Format("Jan 2, 2006 3:04 PM"))},
				},
			},
			{Type: "divider"},
			{
				Type: "context",
				Elements: []slackText{
					{Type: "mrkdwn", Text: "Sent from Ticket Checklist App"},
				},
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternalService, "failed to encode slack message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternalService, "failed to build slack request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("ticket", ticketName).Msg("slack webhook call failed")
		return apperrors.Wrap(apperrors.KindExternalService, "failed to send slack message", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Error().Int("status", resp.StatusCode).Str("ticket", ticketName).Msg("slack webhook rejected message")
		return apperrors.New(apperrors.KindExternalService, fmt.Sprintf("slack webhook returned status %d", resp.StatusCode))
	}

	return nil
}
