// Package clipboard copies converted output to the system clipboard and keeps
// a short-lived "copied" flag that clears itself after a delay.
package clipboard

import (
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
)

// DefaultResetAfter is how long the copied flag stays set.
const DefaultResetAfter = 2 * time.Second

var ErrNoOutput = errors.New("clipboard: nothing to copy")

// Writer puts text on a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// System writes through the platform clipboard utility (pbcopy, xclip, ...).
type System struct{}

func (System) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Copier tracks whether the current output has been copied. A new copy
// restarts the reset timer; Reset clears the flag at once.
type Copier struct {
	w        Writer
	delay    time.Duration
	onChange func(copied bool)

	mu     sync.Mutex
	copied bool
	gen    uint64
	timer  *time.Timer
}

// New returns a Copier. delay <= 0 uses DefaultResetAfter. onChange may be
// nil; it is called outside the lock whenever the flag flips.
func New(w Writer, delay time.Duration, onChange func(bool)) *Copier {
	if w == nil {
		w = System{}
	}
	if delay <= 0 {
		delay = DefaultResetAfter
	}
	return &Copier{w: w, delay: delay, onChange: onChange}
}

// Copy writes text to the clipboard. Output that is empty after trimming is
// refused with ErrNoOutput and leaves the flag untouched.
func (c *Copier) Copy(text string) error {
	if !jsx.HasOutput(text) {
		return ErrNoOutput
	}
	if err := c.w.WriteAll(text); err != nil {
		logging.For("clipboard").Warn("copy failed", "err", err)
		return err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	was := c.copied
	c.copied = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() { c.expire(gen) })
	c.mu.Unlock()

	if !was {
		c.notify(true)
	}
	return nil
}

func (c *Copier) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

// Reset clears the flag, e.g. because the output changed.
func (c *Copier) Reset() {
	c.mu.Lock()
	was := c.clearLocked()
	c.mu.Unlock()
	if was {
		c.notify(false)
	}
}

// Stop cancels a pending reset without notifying.
func (c *Copier) Stop() {
	c.mu.Lock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

func (c *Copier) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	was := c.clearLocked()
	c.mu.Unlock()
	if was {
		c.notify(false)
	}
}

// must be called with c.mu held
func (c *Copier) clearLocked() bool {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	was := c.copied
	c.copied = false
	return was
}

func (c *Copier) notify(copied bool) {
	if c.onChange != nil {
		c.onChange(copied)
	}
}
