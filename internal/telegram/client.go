package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Long polling is capped by Telegram at 50 seconds.
const maxPollTimeout = 50

// Client is a minimal Telegram Bot API client.
type Client struct {
	apiURL   string
	botToken string
	client   *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL points the client at a different Bot API server.
func WithAPIURL(url string) ClientOption {
	return func(c *Client) { c.apiURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new Bot API client.
func NewClient(botToken string, opts ...ClientOption) *Client {
	c := &Client{
		apiURL:   DefaultAPIURL,
		botToken: botToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendOptions tweaks a sendMessage call.
type SendOptions struct {
	ParseMode string
}

// Send sends plain text to a chat. It implements the notification sender.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, chatID, text, SendOptions{})
}

// SendMessage sends a message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if opts.ParseMode != "" {
		payload["parse_mode"] = opts.ParseMode
	}

	var sent Message
	if err := c.call(ctx, c.client, "sendMessage", payload, &sent); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, c.client, "getMe", nil, &me); err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	return &me, nil
}

// GetUpdates long-polls for updates after offset. timeout is in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	if timeout < 0 {
		timeout = 0
	}
	if timeout > maxPollTimeout {
		timeout = maxPollTimeout
	}

	payload := map[string]interface{}{
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		payload["offset"] = offset
	}

	// The request must outlive the server-side hold.
	pollClient := &http.Client{
		Timeout:   time.Duration(timeout+10) * time.Second,
		Transport: c.client.Transport,
	}

	var updates []Update
	if err := c.call(ctx, pollClient, "getUpdates", payload, &updates); err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}
	return updates, nil
}

// call makes a request to the Telegram Bot API and decodes the result.
func (c *Client) call(ctx context.Context, hc *http.Client, method string, payload map[string]interface{}, result any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.botToken, method)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope apiResponse[json.RawMessage]
	if err := json.Unmarshal(responseBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s error %d: %s", e.Method, e.Code, e.Description)
}
