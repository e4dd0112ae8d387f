// Package slack delivers report text to a Slack channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultAPIURL  = "https://slack.com/api/chat.postMessage"
	requestTimeout = 10 * time.Second
)

// Client posts messages via chat.postMessage. Delivery is fire-and-forget:
// the only contract is the returned error.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient creates a Slack client with the given bot token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiURL:     defaultAPIURL,
		token:      token,
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// PostMessage sends text to a channel.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	payload, err := json.Marshal(postMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var out postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack API error: %s", out.Error)
	}
	return nil
}
