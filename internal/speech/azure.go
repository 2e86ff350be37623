package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"voxloop/internal/transport"
	"voxloop/pkg/logger"
)

const (
	// azureOutputFormat is the audio format requested from Azure, chosen to
	// be playable by mpv without transcoding.
	azureOutputFormat = "riff-24khz-16bit-mono-pcm"

	azureEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
)

// Azure is the SSML synthesis backend. Replies may carry an inline
// ":<style> " directive selecting an expressive speaking style, rendered as
// an mstts:express-as element.
type Azure struct {
	httpClient *http.Client
	key        string
	voice      string
	endpoint   string
	logger     *logger.Logger
}

// NewAzure creates the Azure synthesis backend for a region-scoped endpoint
// with subscription-key authentication.
func NewAzure(httpClient *http.Client, key, region, voice string, log *logger.Logger) *Azure {
	return &Azure{
		httpClient: httpClient,
		key:        key,
		voice:      voice,
		endpoint:   fmt.Sprintf(azureEndpointFormat, region),
		logger:     log.Named("tts-azure"),
	}
}

// WithEndpoint overrides the synthesis endpoint, for tests.
func (s *Azure) WithEndpoint(endpoint string) *Azure {
	s.endpoint = endpoint
	return s
}

// BuildSSML renders the SSML envelope for the given reply text, stripping
// and applying a leading style directive when present.
func (s *Azure) BuildSSML(text string) string {
	style, spoken := ParseStyleDirective(text)

	body := xmlEscape(spoken)
	if style != "" {
		body = fmt.Sprintf("<mstts:express-as style=%q>%s</mstts:express-as>", style, body)
	}

	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xmlns:mstts='https://www.w3.org/2001/mstts' xml:lang='en-US'>`+
			`<voice name='%s'>%s</voice></speak>`,
		s.voice, body)
}

// Synthesize posts the SSML document and returns the raw audio bytes.
func (s *Azure) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ssml := s.BuildSSML(text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)

	s.logger.Debug("Requesting Azure speech synthesis",
		logger.String("voice", s.voice),
		logger.Int("ssml_bytes", len(ssml)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure speech request failed: %w", err)
	}
	if err := transport.CheckResponse("azure-speech", resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	return audio, nil
}

func xmlEscape(text string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(text))
	return buf.String()
}
