package trigger

import (
	"context"
	"fmt"

	hook "github.com/robotn/gohook"

	"voxloop/pkg/logger"
)

// defaultKey is matched when no keycode is configured.
const defaultKey = "f1"

// Hotkey is a trigger source backed by a global keyboard hook. The listener
// goroutine runs for the lifetime of the process and publishes into a
// capacity-1 channel; key presses arriving while a signal is already pending
// are dropped, which is fine because the pipeline drains the channel
// immediately before re-arming.
type Hotkey struct {
	keycode uint16
	signals chan struct{}
	logger  *logger.Logger
}

// NewHotkey creates a hotkey trigger for the given raw keycode. A zero
// keycode selects the built-in default key.
func NewHotkey(keycode uint16, log *logger.Logger) *Hotkey {
	return &Hotkey{
		keycode: keycode,
		signals: make(chan struct{}, 1),
		logger:  log.Named("hotkey"),
	}
}

// Start installs the OS keyboard hook and begins listening. Called exactly
// once at startup; a hook that cannot be installed is fatal.
func (h *Hotkey) Start() error {
	events := hook.Start()
	if events == nil {
		return fmt.Errorf("failed to install global keyboard hook")
	}

	if h.keycode != 0 {
		h.logger.Info("Global hotkey listener started",
			logger.Uint16("keycode", h.keycode))
	} else {
		h.logger.Info("Global hotkey listener started",
			logger.String("key", defaultKey))
	}

	go h.listen(events)
	return nil
}

func (h *Hotkey) listen(events <-chan hook.Event) {
	for ev := range events {
		h.offer(ev)
	}
	h.logger.Warn("Keyboard hook event stream closed")
}

// offer publishes a signal for a matching key press and reports whether the
// event was accepted. Split out from listen so the single-slot semantics are
// testable without an OS hook.
func (h *Hotkey) offer(ev hook.Event) bool {
	if ev.Kind != hook.KeyDown {
		return false
	}
	if !h.matches(ev) {
		return false
	}
	select {
	case h.signals <- struct{}{}:
		return true
	default:
		// A signal is already pending; drop this press.
		return false
	}
}

func (h *Hotkey) matches(ev hook.Event) bool {
	if h.keycode != 0 {
		return ev.Rawcode == h.keycode
	}
	return ev.Keycode == hook.Keycode[defaultKey]
}

// Await blocks until the next matching key press.
func (h *Hotkey) Await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.signals:
		return nil
	}
}
