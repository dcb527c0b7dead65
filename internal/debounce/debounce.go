// Package debounce coalesces bursts of value changes into a single update
// that lands only after the source has been quiet for a fixed period.
package debounce

import (
	"sync"
	"time"
)

// Value holds a raw input and its debounced counterpart. The debounced value
// changes only after the raw value stopped changing for the quiet period;
// onSettle then runs with the new value. onSettle does not run when the
// settled value equals the previous debounced value.
type Value[T comparable] struct {
	mu       sync.Mutex
	clock    Clock
	quiet    time.Duration
	raw      T
	settled  T
	timer    Timer
	seq      uint64
	onSettle func(T)
}

// New returns a Value starting at initial with both raw and debounced set.
func New[T comparable](initial T, quiet time.Duration, clock Clock, onSettle func(T)) *Value[T] {
	if clock == nil {
		clock = Real()
	}
	return &Value[T]{
		clock:    clock,
		quiet:    quiet,
		raw:      initial,
		settled:  initial,
		onSettle: onSettle,
	}
}

// Set buffers v and restarts the quiet period.
func (d *Value[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.raw = v
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.quiet <= 0 {
		d.timer = nil
		go d.settle(seq)
		return
	}
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.settle(seq) })
}

// Flush settles the raw value immediately, skipping the quiet period.
func (d *Value[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()
	d.settle(seq)
}

// Raw returns the latest buffered input.
func (d *Value[T]) Raw() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Settled returns the debounced value.
func (d *Value[T]) Settled() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Reset sets raw and debounced to v without notifying, cancelling any
// pending update.
func (d *Value[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.raw = v
	d.settled = v
}

// Stop cancels a pending update.
func (d *Value[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

func (d *Value[T]) settle(seq uint64) {
	d.mu.Lock()
	// A later Set, Flush, Reset or Stop superseded this callback.
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.raw == d.settled {
		d.mu.Unlock()
		return
	}
	d.settled = d.raw
	v := d.settled
	notify := d.onSettle
	d.mu.Unlock()

	if notify != nil {
		notify(v)
	}
}
