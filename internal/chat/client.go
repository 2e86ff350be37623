package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voxloop/internal/transport"
	"voxloop/pkg/logger"
)

const (
	// Model is the fixed chat completion model identifier.
	Model = "gpt-4o"

	defaultBaseURL = "https://api.openai.com"
	endpointPath   = "/v1/chat/completions"
)

// Client performs chat completion requests.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a chat client.
func NewClient(httpClient *http.Client, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		logger:     log.Named("chat"),
	}
}

// WithBaseURL overrides the API host, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// completionRequest is the wire shape of the request body.
type completionRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

// completionResponse is the explicit schema for the endpoint; only the first
// choice's message content is consumed.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts the rendered message array and returns the assistant reply
// text. Non-2xx statuses and shape mismatches are APIErrors carrying the
// captured body.
func (c *Client) Complete(ctx context.Context, messages []Turn) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Requesting chat completion",
		logger.String("model", Model),
		logger.Int("messages", len(messages)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if err := transport.CheckResponse("chat", resp); err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", transport.ShapeError("chat", raw, "response is not valid JSON")
	}
	if len(parsed.Choices) == 0 {
		return "", transport.ShapeError("chat", raw, "response has no choices")
	}
	content := parsed.Choices[0].Message.Content
	if content == nil {
		return "", transport.ShapeError("chat", raw, "first choice missing message content")
	}

	return *content, nil
}
