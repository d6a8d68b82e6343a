package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

// Client handles Slack notifications
type Client struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithAPIURL overrides the chat.postMessage endpoint
func WithAPIURL(url string) Option {
	return func(c *Client) {
		c.apiURL = url
	}
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string, opts ...Option) *Client {
	c := &Client{
		botToken: botToken,
		channel:  channel,
		apiURL:   defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatPostMessageRequest represents a Slack chat.postMessage request
type ChatPostMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// SendRunSummary posts the sentiment summary of a run
func (c *Client) SendRunSummary(ctx context.Context, run *model.Run, dashboardURL string) error {
	return c.sendMessage(ctx, formatRunMessage(run, dashboardURL), c.channel)
}

// SendSimpleMessage sends a simple text message to Slack
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	return c.sendMessage(ctx, text, c.channel)
}

func formatRunMessage(run *model.Run, dashboardURL string) string {
	timestamp := run.ProcessedAt.UTC().Format("2006-01-02 15:04:05 MST")

	title := run.VideoURL
	if run.Video != nil && run.Video.Title != "" {
		title = run.Video.Title
	}

	s := run.Summary
	var b strings.Builder
	fmt.Fprintf(&b, ":bar_chart: *Comment sentiment analysis finished*\n\n*%s*\n", title)
	fmt.Fprintf(&b, ":link: URL: %s\n\n", run.VideoURL)
	fmt.Fprintf(&b, "Comments analysed: %d of %d requested\n", s.Total, run.Report.Requested)
	fmt.Fprintf(&b, ":large_green_circle: positive: %d  :red_circle: negative: %d  :white_circle: neutral: %d  :warning: error: %d\n",
		s.Counts[model.SentimentPositive],
		s.Counts[model.SentimentNegative],
		s.Counts[model.SentimentNeutral],
		s.Counts[model.SentimentError])
	fmt.Fprintf(&b, "Average score: %.2f\n", s.AverageScore)

	if len(run.Report.Reasons) > 0 {
		b.WriteString("\nNotes:\n")
		for _, reason := range run.Report.Reasons {
			fmt.Fprintf(&b, "• %s\n", reason)
		}
	}

	if dashboardURL != "" {
		fmt.Fprintf(&b, "\n:chart_with_upwards_trend: Dashboard: %s\n", dashboardURL)
	}
	fmt.Fprintf(&b, "\n:clock3: Processed at: %s", timestamp)

	return b.String()
}

// sendMessage sends a message to the specified Slack channel
func (c *Client) sendMessage(ctx context.Context, text string, channel string) error {
	req := ChatPostMessageRequest{
		Channel:   channel,
		Text:      text,
		Username:  "Comment Sentiment Analyzer",
		IconEmoji: ":robot_face:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}
