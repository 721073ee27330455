package eventsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/httputil"
)

// WebhookChannel POSTs each event as JSON to a single configured URL.
// Delivery runs in its own goroutine, so Emit returns without waiting on
// the HTTP call; on failure it logs, it never propagates an error to the
// caller.
type WebhookChannel struct {
	url        string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     *logrus.Logger
}

func NewWebhookChannel(url string, logger *logrus.Logger) *WebhookChannel {
	return &WebhookChannel{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Jitter:      0.2,
		},
		logger: logger,
	}
}

func (c *WebhookChannel) Emit(e Event) {
	if c.url == "" {
		return
	}

	payload := c.formatPayload(e)
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).Error("marshal webhook payload")
		return
	}

	go c.deliver(body)
}

func (c *WebhookChannel) deliver(body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, c.logger, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		c.logger.WithError(err).Warn("webhook delivery failed after retries")
		return
	}
	defer resp.Body.Close()
}

// formatPayload mirrors the body shape of §6.4 for generic/Slack-style
// webhooks, and substitutes Discord's own field names when the URL is a
// Discord webhook.
func (c *WebhookChannel) formatPayload(e Event) map[string]any {
	wire := map[string]any{
		"service": e.Service,
		"kind":    string(e.Kind),
		"level":   string(e.Level),
		"message": e.Message,
		"ts":      e.TimestampMs,
		"details": e.Details,
		"metrics": e.Metrics,
	}

	if strings.Contains(c.url, "discord") {
		return map[string]any{
			"content": fmt.Sprintf("[%s] %s: %s", e.Level, e.Kind, e.Message),
			"embeds": []map[string]any{{
				"title":  string(e.Kind),
				"fields": wire,
			}},
		}
	}
	return wire
}
