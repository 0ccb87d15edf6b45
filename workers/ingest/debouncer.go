package ingest

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDebounceDelay lets writers finish a batch file before it is read.
const DefaultDebounceDelay = 500 * time.Millisecond

// debouncer coalesces rapid events for the same path. A path is processed
// once no new event has arrived for the delay period.
type debouncer struct {
	pending   map[string]*time.Timer
	mu        sync.Mutex
	delay     time.Duration
	onProcess func(path string)
	stopping  atomic.Bool
}

func newDebouncer(delay time.Duration, onProcess func(path string)) *debouncer {
	return &debouncer{
		pending:   make(map[string]*time.Timer),
		delay:     delay,
		onProcess: onProcess,
	}
}

// Queue schedules path, resetting its timer if it is already pending.
// Returns false if the debouncer is stopping and the event was ignored.
func (d *debouncer) Queue(path string) bool {
	if d.stopping.Load() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring lock (prevents race with Stop)
	if d.stopping.Load() {
		return false
	}

	if timer, ok := d.pending[path]; ok && timer.Reset(d.delay) {
		return true
	}

	// New path, or the old timer already fired and onTimer owns it now
	d.pending[path] = time.AfterFunc(d.delay, func() {
		d.onTimer(path)
	})
	return true
}

func (d *debouncer) onTimer(path string) {
	d.mu.Lock()
	_, ok := d.pending[path]
	if ok {
		delete(d.pending, path)
	}
	d.mu.Unlock()

	if ok && !d.stopping.Load() {
		d.onProcess(path)
	}
}

// Stop cancels all pending events and prevents new ones from being queued.
func (d *debouncer) Stop() {
	d.stopping.Store(true)

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, timer := range d.pending {
		timer.Stop()
	}
	d.pending = make(map[string]*time.Timer)
}

// PendingCount returns the number of pending events (for testing)
func (d *debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
