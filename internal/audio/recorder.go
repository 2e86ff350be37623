// Package audio owns the external capture and playback processes. Both are
// treated as opaque: only their stdin streams and exit status are part of the
// contract, and format correctness is delegated to ffmpeg and the APIs
// downstream.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"voxloop/pkg/logger"
)

// RecorderConfig describes the capture process invocation.
type RecorderConfig struct {
	// Command is the capture binary, "ffmpeg" by default. Injectable for
	// tests.
	Command string
	// Backend is the ffmpeg input format (alsa, dshow, avfoundation).
	Backend string
	// Device is the ffmpeg input device argument.
	Device string
	// OutputPath is where the capture process writes the recording.
	OutputPath string
}

// Recorder launches ffmpeg capture processes.
type Recorder struct {
	cfg    RecorderConfig
	logger *logger.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(cfg RecorderConfig, log *logger.Logger) *Recorder {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	return &Recorder{cfg: cfg, logger: log.Named("recorder")}
}

// Capture is a running capture process. It is owned by a single pipeline
// iteration and never retained across cycles.
type Capture struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Start launches the capture process writing to the configured output path.
// Stdin stays open for the graceful-quit command; diagnostics are suppressed
// except for errors.
func (r *Recorder) Start(ctx context.Context) (*Capture, error) {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", r.cfg.Backend,
		"-i", r.cfg.Device,
		r.cfg.OutputPath,
	}

	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create capture stdin pipe: %w", err)
	}

	r.logger.Debug("Starting capture process",
		logger.String("command", r.cfg.Command),
		logger.String("backend", r.cfg.Backend),
		logger.String("device", r.cfg.Device),
		logger.String("output", r.cfg.OutputPath))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture process: %w", err)
	}

	return &Capture{cmd: cmd, stdin: stdin}, nil
}

// Stop writes the single graceful-quit byte to the capture process and waits
// for it to exit, leaving a finished recording at the output path.
func (c *Capture) Stop() error {
	if _, err := c.stdin.Write([]byte("q")); err != nil {
		return fmt.Errorf("failed to send quit command to capture process: %w", err)
	}
	if err := c.stdin.Close(); err != nil {
		return fmt.Errorf("failed to close capture stdin: %w", err)
	}
	if err := c.cmd.Wait(); err != nil {
		return fmt.Errorf("capture process exited with error: %w", err)
	}
	return nil
}
