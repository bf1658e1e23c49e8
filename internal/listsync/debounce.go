package listsync

import (
	"sync"
	"time"
)

// debouncer runs fn once after the quiet period following the last Notify.
// A run never overlaps another: a Notify arriving mid-run schedules one more.
type debouncer struct {
	quiet time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	running bool
	stopped bool
}

func newDebouncer(quiet time.Duration, fn func()) *debouncer {
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &debouncer{quiet: quiet, fn: fn}
}

func (d *debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.onTimer)
		return
	}
	d.timer.Reset(d.quiet)
}

// Stop cancels a pending run. A run already executing finishes on its own.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *debouncer) onTimer() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	if d.running {
		d.timer.Reset(d.quiet)
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	d.fn()

	d.mu.Lock()
	d.running = false
	if d.pending && !d.stopped {
		d.timer.Reset(d.quiet)
	}
	d.mu.Unlock()
}
