package composer

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay after the last edit before a deferred
// update is committed.
const DefaultDebounce = 140 * time.Millisecond

// Debouncer coalesces bursts of calls into the last one.
//
// Schedule replaces any pending call, so the last write wins. Flush runs
// the pending call immediately on the caller's goroutine; a timer-fired
// call runs on the timer's goroutine. The pending call is never run while
// the Debouncer's lock is held.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	seq     uint64
}

// NewDebouncer returns a Debouncer with the given delay. Non-positive
// delays use DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Schedule arranges for fn to run after the delay, superseding any call
// still pending.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending = fn
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.seq++
	d.mu.Unlock()

	fn()
}

// Flush runs the pending call now, bypassing the timer. It reports whether
// a call was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.stopLocked()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending call without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a call is waiting for its timer.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// stopLocked stops the timer and invalidates any fire already in flight.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.seq++
}
