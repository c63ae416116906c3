package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/boardsync/internal/model"
	"github.com/amishk599/boardsync/internal/retry"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts run summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	retry      retry.Policy
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each run summary to Slack.
// Only rate-limited posts are retried.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		retry: retry.Policy{
			MaxRetries: 1,
			BaseDelay:  time.Second,
			Retryable:  retry.IsRateLimited,
		},
		logger: logger,
	}
}

// Notify sends one Block Kit message describing the run.
func (s *SlackNotifier) Notify(sum model.RunSummary) error {
	body, err := json.Marshal(buildPayload(sum))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	_, err = retry.Do(context.Background(), s.retry, s.logger, "slack webhook", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.post(ctx, body)
	})
	if err != nil {
		return err
	}
	s.logger.Info("slack message sent", "run_id", sum.RunID)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("slack returned %d", resp.StatusCode),
		}
	}
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy run summary to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	return n.Notify(model.RunSummary{
		RunID:      "test-run",
		StartedAt:  now.Add(-42 * time.Second),
		FinishedAt: now,
		Stats:      model.ProcessingStats{Total: 3, Created: 1, Skipped: 1, Failed: 1},
	})
}

func buildPayload(sum model.RunSummary) slackPayload {
	header := "✅ boardsync run finished"
	if sum.Err != nil {
		header = "❌ boardsync run failed"
	}

	count := func(label string, n int) slackText {
		return slackText{Type: "mrkdwn", Text: "*" + label + ":*\n" + strconv.Itoa(n)}
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				count("Created", sum.Stats.Created),
				count("Skipped", sum.Stats.Skipped),
				count("Failed", sum.Stats.Failed),
				count("Total", sum.Stats.Total),
			},
		},
	}

	if sum.Err != nil {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Error:*\n```" + sum.Err.Error() + "```"},
		})
	}

	duration := sum.FinishedAt.Sub(sum.StartedAt).Round(time.Second)
	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("run `%s` · %s · took %s",
					sum.RunID, sum.StartedAt.Format(time.RFC1123), duration)},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
