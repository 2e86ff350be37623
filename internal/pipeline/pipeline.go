// Package pipeline composes the trigger, recorder, API clients and player
// into the interaction loop.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voxloop/internal/chat"
	"voxloop/internal/storage/sqlite"
	"voxloop/internal/trigger"
	"voxloop/pkg/logger"
)

// State is the pipeline's position within one interaction cycle. Transitions
// are strictly sequential and cyclic; an error at any stage exits the loop
// instead of re-arming.
type State int

const (
	StateWaitingForTrigger State = iota
	StateRecording
	StateTranscribing
	StateAwaitingReply
	StateSynthesizing
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateWaitingForTrigger:
		return "waiting-for-trigger"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Capture is a running recording process that can be stopped gracefully.
type Capture interface {
	Stop() error
}

// Recorder starts capture processes.
type Recorder interface {
	Start(ctx context.Context) (Capture, error)
}

// Player streams synthesized audio to the playback process.
type Player interface {
	Play(audio []byte) error
}

// Transcriber converts a recorded audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Completer produces the assistant reply for a rendered message array.
type Completer interface {
	Complete(ctx context.Context, messages []chat.Turn) (string, error)
}

// Synthesizer converts reply text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// TranscriptLog records spoken turns for the session. Optional.
type TranscriptLog interface {
	StoreTurn(record *sqlite.TurnRecord) (int64, error)
}

// Config holds the pipeline's own settings.
type Config struct {
	// AudioFile is the capture output path handed to the transcriber.
	AudioFile string
	// Prompt is the optional system prompt.
	Prompt string
	// MsgLimit bounds the conversation history.
	MsgLimit int
}

// Pipeline is the outer interaction loop. It exclusively owns the
// conversation history and the current state; no other component touches
// either.
type Pipeline struct {
	cfg         Config
	trigger     trigger.Source
	recorder    Recorder
	player      Player
	transcriber Transcriber
	completer   Completer
	synthesizer Synthesizer
	transcripts TranscriptLog

	history *chat.History
	state   State
	logger  *logger.Logger
}

// New creates a pipeline. transcripts may be nil to disable the session log.
func New(
	cfg Config,
	triggerSource trigger.Source,
	recorder Recorder,
	player Player,
	transcriber Transcriber,
	completer Completer,
	synthesizer Synthesizer,
	transcripts TranscriptLog,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		trigger:     triggerSource,
		recorder:    recorder,
		player:      player,
		transcriber: transcriber,
		completer:   completer,
		synthesizer: synthesizer,
		transcripts: transcripts,
		history:     chat.NewHistory(cfg.Prompt, cfg.MsgLimit),
		state:       StateWaitingForTrigger,
		logger:      log.Named("pipeline"),
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// History exposes the conversation history for inspection in tests.
func (p *Pipeline) History() *chat.History {
	return p.history
}

// Run loops cycles until a stage fails or the context is cancelled. Any
// stage error is fatal for the whole process: the error is returned wrapped
// with the failed state and the loop does not re-arm.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("Pipeline started",
		logger.Int("msg_limit", p.cfg.MsgLimit),
		logger.Bool("system_prompt", p.cfg.Prompt != ""))

	for {
		if err := p.runCycle(ctx); err != nil {
			return err
		}
	}
}

func (p *Pipeline) runCycle(ctx context.Context) error {
	cycleID := uuid.New().String()
	log := p.logger.WithCycleID(cycleID)

	p.state = StateWaitingForTrigger
	log.Info("Press the trigger to start recording")
	if err := p.trigger.Await(ctx); err != nil {
		return p.stageErr(err)
	}

	p.state = StateRecording
	capture, err := p.recorder.Start(ctx)
	if err != nil {
		return p.stageErr(err)
	}
	log.Info("Recording, press the trigger to stop")
	if err := p.trigger.Await(ctx); err != nil {
		return p.stageErr(err)
	}
	if err := capture.Stop(); err != nil {
		return p.stageErr(err)
	}

	p.state = StateTranscribing
	transcript, err := p.transcriber.Transcribe(ctx, p.cfg.AudioFile)
	if err != nil {
		return p.stageErr(err)
	}
	log.Info("Transcription received", logger.String("text", transcript))
	fmt.Printf("You: %s\n", transcript)
	p.history.Append(chat.UserTurn(transcript))
	p.logTurn(cycleID, chat.RoleUser, transcript)

	p.state = StateAwaitingReply
	reply, err := p.completer.Complete(ctx, p.history.Render())
	if err != nil {
		return p.stageErr(err)
	}
	log.Info("Reply received", logger.String("text", reply))
	fmt.Printf("Assistant: %s\n", reply)
	p.history.Append(chat.AssistantTurn(reply))
	p.logTurn(cycleID, chat.RoleAssistant, reply)

	p.state = StateSynthesizing
	audio, err := p.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		return p.stageErr(err)
	}

	p.state = StatePlaying
	if err := p.player.Play(audio); err != nil {
		return p.stageErr(err)
	}

	return nil
}

func (p *Pipeline) stageErr(err error) error {
	return fmt.Errorf("%s stage failed: %w", p.state, err)
}

// logTurn records a turn in the optional transcript store. A storage failure
// is logged but does not abort the cycle: the log is a side record, not
// pipeline data.
func (p *Pipeline) logTurn(cycleID, role, content string) {
	if p.transcripts == nil {
		return
	}
	if _, err := p.transcripts.StoreTurn(&sqlite.TurnRecord{
		CycleID:   cycleID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		p.logger.Error("Failed to store transcript turn",
			logger.String("role", role),
			logger.Error(err))
	}
}
