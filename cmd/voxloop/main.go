package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxloop/internal/audio"
	"voxloop/internal/chat"
	"voxloop/internal/config"
	"voxloop/internal/pipeline"
	"voxloop/internal/speech"
	"voxloop/internal/storage/sqlite"
	"voxloop/internal/transcribe"
	"voxloop/internal/transport"
	"voxloop/internal/trigger"
	"voxloop/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration file")
	flag.Parse()

	// One-shot diagnostic mode: dump raw keyboard events so the operator can
	// pick a keycode for the config file. No config required.
	if flag.Arg(0) == "keytest" {
		if err := trigger.DumpKeys(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "keytest failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "voxloop: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Trigger source: global hotkey listener, or stdin lines as a fallback.
	var source trigger.Source
	if cfg.GlobalListen {
		hotkey := trigger.NewHotkey(cfg.Keycode, log)
		if err := hotkey.Start(); err != nil {
			return err
		}
		source = hotkey
	} else {
		source = trigger.NewConsole(nil)
	}

	httpClient := transport.NewClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)

	recorder := audio.NewRecorder(audio.RecorderConfig{
		Backend:    cfg.Backend,
		Device:     cfg.DeviceInput(),
		OutputPath: cfg.AudioFile,
	}, log)
	player := audio.NewPlayer("", log)

	var transcripts pipeline.TranscriptLog
	if cfg.TranscriptDB != "" {
		db, err := sqlite.Open(cfg.TranscriptDB)
		if err != nil {
			return err
		}
		defer db.Close()
		store, err := sqlite.NewTranscriptStorage(db, log)
		if err != nil {
			return err
		}
		transcripts = store
	}

	p := pipeline.New(
		pipeline.Config{
			AudioFile: cfg.AudioFile,
			Prompt:    cfg.Prompt,
			MsgLimit:  cfg.MsgLimit,
		},
		source,
		recorderAdapter{recorder},
		player,
		transcribe.NewClient(httpClient, cfg.OpenAIKey, log),
		chat.NewClient(httpClient, cfg.OpenAIKey, log),
		speech.New(cfg, httpClient, log),
		transcripts,
		log,
	)

	if err := p.Run(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("Shutting down", logger.Error(ctx.Err()))
			return nil
		}
		return err
	}
	return nil
}

// recorderAdapter narrows *audio.Recorder to the pipeline's Recorder
// interface.
type recorderAdapter struct {
	rec *audio.Recorder
}

func (a recorderAdapter) Start(ctx context.Context) (pipeline.Capture, error) {
	capture, err := a.rec.Start(ctx)
	if err != nil {
		return nil, err
	}
	return capture, nil
}
