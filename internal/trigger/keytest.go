package trigger

import (
	"fmt"
	"io"

	hook "github.com/robotn/gohook"
)

// DumpKeys prints every raw keyboard event to w until the hook stream ends.
// This is the one-shot diagnostic mode used to discover the keycode to put
// in the configuration file.
func DumpKeys(w io.Writer) error {
	events := hook.Start()
	if events == nil {
		return fmt.Errorf("failed to install global keyboard hook")
	}
	defer hook.End()

	fmt.Fprintln(w, "Press keys to see their codes (Ctrl+C to exit)")
	for ev := range events {
		if ev.Kind != hook.KeyDown && ev.Kind != hook.KeyUp {
			continue
		}
		fmt.Fprintf(w, "kind=%d keycode=%d rawcode=%d keychar=%q\n",
			ev.Kind, ev.Keycode, ev.Rawcode, ev.Keychar)
	}
	return nil
}
