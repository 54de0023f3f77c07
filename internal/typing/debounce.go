package typing

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is how long after the last keystroke a typing burst is
// considered finished.
const DefaultIdleTimeout = 2 * time.Second

// Debouncer collapses a burst of keystrokes into a single expiry callback.
// Touch restarts the countdown; the callback fires exactly once per burst,
// when the countdown runs out with no further touches. Stop cancels the
// pending callback and makes every later Touch a no-op.
type Debouncer struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
	fire    func()
}

func NewDebouncer(timeout time.Duration, fire func()) *Debouncer {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Debouncer{timeout: timeout, fire: fire}
}

// Touch records activity, restarting the idle countdown. The generation
// counter invalidates a timer that already fired but has not yet run its
// callback, so a keystroke landing on the countdown boundary cannot end
// the burst it just extended.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.timeout, func() { d.expire(gen) })
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fire := d.fire
	d.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Stop cancels any pending expiry. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
