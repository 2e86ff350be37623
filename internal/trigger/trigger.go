// Package trigger produces the start/stop signals that drive the recording
// loop, either from a global keyboard hook or from console input.
package trigger

import "context"

// Source delivers discrete trigger signals. Await blocks until the next
// signal arrives or the context is cancelled. The pipeline calls it twice
// per cycle: once to start recording and once to stop.
type Source interface {
	Await(ctx context.Context) error
}
