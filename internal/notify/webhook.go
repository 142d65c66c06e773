package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// WebhookChannel posts messages to a chat incoming webhook (Slack-compatible
// {"text": ...} payload). Transient 5xx and connection failures are retried a
// bounded number of times inside the dispatcher's send timeout.
type WebhookChannel struct {
	url    string
	client *retryablehttp.Client
}

// NewWebhookChannel returns a channel posting to url with up to retryMax
// retries.
func NewWebhookChannel(url string, retryMax int) *WebhookChannel {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.Logger = nil
	return &WebhookChannel{url: url, client: c}
}

func (w *WebhookChannel) Name() string { return "webhook" }

type webhookPayload struct {
	Text string `json:"text"`
}

// Send posts msg.Text. Any non-2xx final response is an error.
func (w *WebhookChannel) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(webhookPayload{Text: msg.Text})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
