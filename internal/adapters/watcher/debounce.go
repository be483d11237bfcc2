package watcher

import (
	"sync"
	"time"
)

// debouncer runs a callback once per key after the key has been quiet for delay.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCall
	stopped bool
	wg      sync.WaitGroup
}

type pendingCall struct {
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]*pendingCall)}
}

// add schedules fn for key, replacing any call still waiting for that key.
func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok && prev.timer.Stop() {
		d.wg.Done()
	}

	call := &pendingCall{}

	d.wg.Add(1)
	call.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.pending[key] == call {
			delete(d.pending, key)
		}
		stopped := d.stopped
		d.mu.Unlock()

		if !stopped {
			fn()
		}
	})
	d.pending[key] = call
}

// stopAndWait drops waiting calls and blocks until running ones return.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true

	for key, call := range d.pending {
		if call.timer.Stop() {
			d.wg.Done()
		}

		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
