// Package transcribe submits captured audio to the OpenAI transcription
// endpoint and extracts the transcript text.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"voxloop/internal/transport"
	"voxloop/pkg/logger"
)

const (
	// Model is the fixed transcription model identifier.
	Model = "whisper-1"

	defaultBaseURL = "https://api.openai.com"
	endpointPath   = "/v1/audio/transcriptions"
)

// Client performs transcription uploads.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a transcription client.
func NewClient(httpClient *http.Client, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		logger:     log.Named("transcribe"),
	}
}

// WithBaseURL overrides the API host, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// transcriptionResponse is the explicit schema for the endpoint. Only the
// text field is consumed.
type transcriptionResponse struct {
	Text *string `json:"text"`
}

// Transcribe uploads the audio file as a multipart form and returns the
// transcript. Any non-2xx status or a response missing the text field is an
// APIError carrying the captured body.
func (c *Client) Transcribe(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to copy audio into form: %w", err)
	}
	if err := writer.WriteField("model", Model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointPath, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("Uploading audio for transcription",
		logger.String("file", filePath),
		logger.String("model", Model))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	if err := transport.CheckResponse("transcription", resp); err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", transport.ShapeError("transcription", raw, "response is not valid JSON")
	}
	if parsed.Text == nil {
		return "", transport.ShapeError("transcription", raw, "response missing text field")
	}

	return *parsed.Text, nil
}
