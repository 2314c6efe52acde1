// Package mail delivers transactional email through a Resend-compatible
// HTTP API. Delivery is best-effort and asynchronous: portal writes
// never block on the mail provider.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Message is a single outbound email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Client talks to the mail provider's REST API.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClient constructs a Client with defaults.
func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: "https://api.resend.com",
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts one message to the provider.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.APIKey == "" {
		return fmt.Errorf("mail api key not configured")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("mail message has no recipients")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send mail: unexpected status %d", resp.StatusCode)
	}
	return nil
}
