package speech

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
	// OpenAIModel is the fixed speech synthesis model identifier.
	OpenAIModel = "tts-1"

	openaiDefaultBaseURL = "https://api.openai.com"
	openaiEndpointPath   = "/v1/audio/speech"
)

// OpenAI is the plain text-to-speech backend. The response body is the raw
// audio, passed through untouched.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string
	voice      string
	baseURL    string
	logger     *logger.Logger
}

// NewOpenAI creates the plain TTS backend.
func NewOpenAI(httpClient *http.Client, apiKey, voice string, log *logger.Logger) *OpenAI {
	return &OpenAI{
		httpClient: httpClient,
		apiKey:     apiKey,
		voice:      voice,
		baseURL:    openaiDefaultBaseURL,
		logger:     log.Named("tts-openai"),
	}
}

// WithBaseURL overrides the API host, for tests.
func (s *OpenAI) WithBaseURL(baseURL string) *OpenAI {
	s.baseURL = baseURL
	return s
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Synthesize posts the reply text and returns the audio bytes from the
// response body.
func (s *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(speechRequest{Model: OpenAIModel, Input: text, Voice: s.voice})
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+openaiEndpointPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	s.logger.Debug("Requesting speech synthesis",
		logger.String("model", OpenAIModel),
		logger.String("voice", s.voice),
		logger.Int("chars", len(text)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	if err := transport.CheckResponse("speech", resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	return audio, nil
}
