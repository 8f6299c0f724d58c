package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/s6s-labs/s6s-engine/pkg/httpclient"
)

const defaultTeamsMessage = "Notification from workflow"

// Teams posts a message card to a Microsoft Teams incoming webhook.
// Unlike the generic HTTP node, a non-2xx answer here fails the node:
// there is no downstream value in a rejected notification.
type Teams struct {
	client httpclient.HttpClient
}

func NewTeams(client httpclient.HttpClient) *Teams {
	return &Teams{client: client}
}

func (t *Teams) Execute(ctx context.Context, config map[string]any, _ map[string]string) (map[string]any, error) {
	webhookURL := configString(config, "webhookUrl")

	message := configString(config, "message")
	if message == "" {
		message = defaultTeamsMessage
	}

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("teams webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teams webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("teams webhook: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("teams webhook: status %d: %s", resp.StatusCode, string(body))
	}

	return map[string]any{"status": "success", "data": string(body)}, nil
}
