package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid openai config")

	// ErrEmptyCompletion is returned when the API returns no choices
	ErrEmptyCompletion = errors.New("empty completion response")
)

// Config represents the configuration for the OpenAI client
type Config struct {
	// APIKey authenticates against the OpenAI API
	APIKey string

	// BaseURL is the API base URL (override for proxies or compatible servers)
	BaseURL string

	// Model is the chat model used for parsing and scoring
	Model string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" || c.BaseURL == "" || c.Model == "" {
		return ErrInvalidConfig
	}
	return nil
}

// Client is a minimal chat-completions client. Only the parts of the
// API this service uses are modeled.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new OpenAI client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Complete sends a system+user prompt pair and returns the assistant reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	resp, err := c.doRequest(ctx, "chat/completions", req)
	if err != nil {
		return "", fmt.Errorf("failed to make completion request: %w", err)
	}

	var completion chatResponse
	if err := json.Unmarshal(resp, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return completion.Choices[0].Message.Content, nil
}

// doRequest performs an HTTP request to the OpenAI API
func (c *Client) doRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("openai api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("openai api error: status %d", resp.StatusCode)
	}

	return body, nil
}
