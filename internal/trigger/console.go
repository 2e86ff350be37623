package trigger

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
)

// Console is a trigger source that treats every line on standard input
// (including an empty one) as a signal. A single reader goroutine feeds a
// capacity-1 channel so Await never races on the underlying reader.
type Console struct {
	r       io.Reader
	once    sync.Once
	signals chan struct{}
	readErr chan error
}

// NewConsole creates a console trigger reading from r, or os.Stdin when r is
// nil.
func NewConsole(r io.Reader) *Console {
	if r == nil {
		r = os.Stdin
	}
	return &Console{
		r:       r,
		signals: make(chan struct{}, 1),
		readErr: make(chan error, 1),
	}
}

func (c *Console) pump() {
	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		// Drop extra lines while a signal is pending; the loop drains
		// immediately before re-arming so nothing meaningful is lost.
		select {
		case c.signals <- struct{}{}:
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		c.readErr <- err
		return
	}
	c.readErr <- io.EOF
}

// Await blocks until a line is read. Reader errors and EOF are returned so
// the pipeline can shut down instead of spinning on a closed stdin.
func (c *Console) Await(ctx context.Context) error {
	c.once.Do(func() { go c.pump() })

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.readErr:
		return err
	case <-c.signals:
		return nil
	}
}
