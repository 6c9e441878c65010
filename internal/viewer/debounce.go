package viewer

import "time"

// Debouncer coalesces bursts of triggers into one action that fires once
// the triggers have been quiet for the wait period. It is polled from the
// frame loop and is not safe for concurrent use.
type Debouncer struct {
	wait    time.Duration
	due     time.Time
	pending bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Trigger (re)starts the quiet period at now.
func (d *Debouncer) Trigger(now time.Time) {
	d.due = now.Add(d.wait)
	d.pending = true
}

// Pending reports whether a trigger is waiting to fire.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Ready reports whether the pending action is due, and clears it if so.
func (d *Debouncer) Ready(now time.Time) bool {
	if !d.pending || now.Before(d.due) {
		return false
	}
	d.pending = false
	return true
}

// Cancel drops a pending trigger.
func (d *Debouncer) Cancel() {
	d.pending = false
}
