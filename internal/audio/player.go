package audio

import (
	"fmt"
	"os/exec"

	"voxloop/pkg/logger"
)

// Player streams synthesized audio into an external playback process.
type Player struct {
	// Command is the playback binary, "mpv" by default. Injectable for
	// tests.
	command string
	logger  *logger.Logger
}

// NewPlayer creates a player.
func NewPlayer(command string, log *logger.Logger) *Player {
	if command == "" {
		command = "mpv"
	}
	return &Player{command: command, logger: log.Named("player")}
}

// Play launches the playback process reading from stdin with the terminal UI
// suppressed, writes the whole buffer, and lets playback run to completion on
// its own. The pipeline does not wait for playback before re-arming.
func (p *Player) Play(audio []byte) error {
	cmd := exec.Command(p.command, "-", "--no-terminal")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create playback stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start playback process: %w", err)
	}

	p.logger.Debug("Streaming audio to player",
		logger.String("command", p.command),
		logger.Int("bytes", len(audio)))

	if _, err := stdin.Write(audio); err != nil {
		return fmt.Errorf("failed to write audio to playback process: %w", err)
	}
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("failed to close playback stdin: %w", err)
	}

	// Fire and forget: reap the process in the background so it never
	// lingers as a zombie.
	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Warn("Playback process exited with error", logger.Error(err))
		}
	}()

	return nil
}
