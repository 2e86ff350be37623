// Package speech turns reply text into audio bytes through one of two
// interchangeable synthesis backends.
package speech

import (
	"context"
	"net/http"

	"voxloop/internal/config"
	"voxloop/pkg/logger"
)

// Synthesizer converts reply text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// New selects the synthesis backend from configuration: Azure when its
// credentials are present, the plain OpenAI endpoint otherwise.
func New(cfg *config.Config, httpClient *http.Client, log *logger.Logger) Synthesizer {
	if cfg.UseAzureSynthesis() {
		return NewAzure(httpClient, cfg.AzureKey, cfg.AzureRegion, cfg.AzureVoice, log)
	}
	return NewOpenAI(httpClient, cfg.OpenAIKey, cfg.Voice, log)
}
