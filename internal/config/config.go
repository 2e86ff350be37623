package config

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where Load looks when no -config flag is given.
const DefaultPath = "config.toml"

// Config holds all runtime settings. It is loaded and validated once at
// startup and treated as immutable afterwards; components receive it by
// reference at construction time and never consult any global state.
type Config struct {
	// OpenAIKey authenticates transcription, chat and the plain TTS backend.
	OpenAIKey string `toml:"openai_key"`
	// AzureKey/AzureRegion select the Azure synthesis backend when set.
	AzureKey    string `toml:"azure_key"`
	AzureRegion string `toml:"azure_region"`

	// Prompt is the optional system prompt prepended to every chat request.
	Prompt string `toml:"prompt"`
	// AudioFile is where the capture process writes the recorded utterance.
	AudioFile string `toml:"audio_file"`
	// MsgLimit bounds the conversation history (FIFO eviction).
	MsgLimit int `toml:"msg_limit"`

	// Backend and Device identify the capture input (ffmpeg -f / -i).
	Backend string `toml:"backend"`
	Device  string `toml:"device"`

	// GlobalListen selects the global hotkey trigger; false falls back to
	// reading lines from stdin.
	GlobalListen bool `toml:"global_listen"`
	// Keycode is the raw key code matched by the hotkey listener. Zero means
	// the built-in default key. Discover values with the keytest mode.
	Keycode uint16 `toml:"keycode"`

	// Voice is the OpenAI TTS voice name.
	Voice string `toml:"voice"`
	// AzureVoice is the SSML voice name for the Azure backend.
	AzureVoice string `toml:"azure_voice"`

	// TranscriptDB is an optional sqlite path for the session transcript log.
	// Empty disables the store.
	TranscriptDB string `toml:"transcript_db"`

	Logging LoggingConfig `toml:"logging"`
	HTTP    HTTPConfig    `toml:"http"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// HTTPConfig configures the shared API transport.
type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Load reads and validates the TOML configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		switch runtime.GOOS {
		case "windows":
			c.Backend = "dshow"
		case "darwin":
			c.Backend = "avfoundation"
		default:
			c.Backend = "alsa"
		}
	}
	if c.Device == "" {
		c.Device = "default"
	}
	if c.Voice == "" {
		c.Voice = "onyx"
	}
	if c.AzureVoice == "" {
		c.AzureVoice = "en-US-AvaNeural"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 60
	}
}

func (c *Config) validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("openai_key is required")
	}
	if c.AudioFile == "" {
		return fmt.Errorf("audio_file is required")
	}
	if c.MsgLimit < 0 {
		return fmt.Errorf("msg_limit must be non-negative, got %d", c.MsgLimit)
	}
	if (c.AzureKey == "") != (c.AzureRegion == "") {
		return fmt.Errorf("azure_key and azure_region must be set together")
	}
	return nil
}

// UseAzureSynthesis reports whether the Azure TTS backend is configured.
func (c *Config) UseAzureSynthesis() bool {
	return c.AzureKey != "" && c.AzureRegion != ""
}

// DeviceInput returns the ffmpeg -i argument for the configured device.
// The dshow backend expects an "audio=" prefix on device names.
func (c *Config) DeviceInput() string {
	if c.Backend == "dshow" {
		return "audio=" + c.Device
	}
	return c.Device
}
