// Package watch reports changes to workflow documents on disk.
package watch

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collects keys and hands them to the callback once the window
// passes without another Add.
type Debouncer struct {
	window   time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]struct{}
	callback func(keys []string)
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, callback func(keys []string)) *Debouncer {
	return &Debouncer{
		window:   window,
		pending:  make(map[string]struct{}),
		callback: callback,
	}
}

// Add records key and restarts the window.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[key] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	d.callback(keys)
}

// Stop cancels any pending callback and drops collected keys.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
