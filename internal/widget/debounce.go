package widget

import (
	"sync"
	"time"
)

// Debouncer runs the last triggered function once the delay passed without
// another trigger.
type Debouncer struct {
	mu      sync.Mutex
	idle    *sync.Cond
	delay   time.Duration
	timer   *time.Timer
	pending int
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules f, replacing any function still waiting
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending++
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.done()
		f()
	})
}

// Stop drops the waiting function, if any
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.timer = nil
}

// Wait blocks until no function is waiting or running
func (d *Debouncer) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.pending > 0 {
		d.idle.Wait()
	}
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.releaseLocked()
	}
}

func (d *Debouncer) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseLocked()
}

func (d *Debouncer) releaseLocked() {
	d.pending--
	if d.pending == 0 {
		d.idle.Broadcast()
	}
}
