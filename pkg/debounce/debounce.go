// Package debounce coalesces bursts of keyed calls into one trailing call per
// key once the key has been quiet for the configured window.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow matches the response grid's per-cell quiescence window.
const DefaultWindow = 500 * time.Millisecond

// Group holds one pending call per key.
type Group struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*entry
	closed  bool
}

type entry struct {
	timer *time.Timer
	fn    func()
	gen   uint64
}

// New returns a group with the given window; non-positive windows fall back
// to DefaultWindow.
func New(window time.Duration) *Group {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Group{
		window:  window,
		pending: make(map[string]*entry),
	}
}

// Window reports the configured quiescence window.
func (g *Group) Window() time.Duration {
	return g.window
}

// Schedule replaces any pending call for key with fn and restarts the window.
// Calls after Close are ignored.
func (g *Group) Schedule(key string, fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	e, ok := g.pending[key]
	if !ok {
		e = &entry{}
		g.pending[key] = e
	} else if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.fn = fn
	gen := e.gen
	e.timer = time.AfterFunc(g.window, func() { g.fire(key, gen) })
}

func (g *Group) fire(key string, gen uint64) {
	g.mu.Lock()
	e, ok := g.pending[key]
	// A stale timer may fire after Stop lost the race with a reschedule.
	if !ok || e.gen != gen || g.closed {
		g.mu.Unlock()
		return
	}
	delete(g.pending, key)
	fn := e.fn
	g.mu.Unlock()
	fn()
}

// Cancel drops the pending call for key. It reports whether one existed.
func (g *Group) Cancel(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(g.pending, key)
	return true
}

// Flush runs the pending call for key immediately on the caller's goroutine.
func (g *Group) Flush(key string) bool {
	g.mu.Lock()
	e, ok := g.pending[key]
	if !ok || g.closed {
		g.mu.Unlock()
		return false
	}
	e.timer.Stop()
	delete(g.pending, key)
	fn := e.fn
	g.mu.Unlock()
	fn()
	return true
}

// Pending returns the number of keys waiting to fire.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Close cancels every pending call. Subsequent schedules are no-ops.
func (g *Group) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for key, e := range g.pending {
		e.timer.Stop()
		delete(g.pending, key)
	}
}
