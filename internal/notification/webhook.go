package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fredrikburmester/streamcore/internal/config"
)

// WebhookProvider forwards alerts to a configured HTTP endpoint
type WebhookProvider struct {
	url    string
	client *http.Client
}

// NewWebhookProvider creates a webhook provider posting JSON alerts to url
func NewWebhookProvider(url string) *WebhookProvider {
	return &WebhookProvider{
		url: url,
		client: &http.Client{
			Timeout: config.GetTimeouts().HTTPClient,
		},
	}
}

// Name returns the provider name
func (w *WebhookProvider) Name() string {
	return "webhook"
}

// Send posts the alert as JSON
func (w *WebhookProvider) Send(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(map[string]string{
		"header":    alert.Header,
		"body":      alert.Body,
		"timestamp": alert.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
