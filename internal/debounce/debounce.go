// Package debounce coalesces bursts of triggers into a single call made
// after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once delay has passed without a new Trigger. Calls to
// fn never overlap.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool

	runMu    sync.Mutex
	inflight sync.WaitGroup
}

// New creates a debouncer. fn runs on the timer goroutine unless invoked
// through Flush.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn after the quiet period, cancelling and restarting
// any timer already running. Triggers after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.inflight.Done()
		d.fire(gen)
	})
}

// fire runs fn if gen is still the latest scheduled generation.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.run()
}

// Flush cancels the timer and, if a call was pending, runs fn on the
// calling goroutine. It reports whether fn ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		if d.timer.Stop() {
			d.inflight.Done()
		}
		d.timer = nil
	}
	d.gen++
	was := d.pending
	d.pending = false
	d.mu.Unlock()

	if was {
		d.run()
	}
	return was
}

// Stop cancels any scheduled call without running it, waits for a call
// already in progress, and disables further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		if d.timer.Stop() {
			d.inflight.Done()
		}
		d.timer = nil
	}
	d.stopped = true
	d.pending = false
	d.mu.Unlock()

	d.inflight.Wait()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) run() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.fn()
}
