// Package sched provides the dispatch abstraction the orchestrator schedules
// on: immediate posts for the post-commit callback queue and cancellable
// delayed posts for deadlines. Production code uses Timers; tests use Manual
// to drive time explicitly.
package sched

import (
	"sync"
	"time"
)

// Token identifies a delayed post for cancellation.
type Token uint64

// Scheduler dispatches work onto the orchestrator's scheduling context.
type Scheduler interface {
	// Post runs fn asynchronously, after any in-progress dispatch completes.
	Post(fn func())

	// PostDelayed runs fn after d has elapsed unless canceled first.
	PostDelayed(d time.Duration, fn func()) Token

	// Cancel stops a delayed post. Canceling an unknown or already-fired
	// token is a no-op.
	Cancel(tok Token)
}

// Timers is the production Scheduler backed by the runtime timer heap.
type Timers struct {
	mu     sync.Mutex
	next   Token
	timers map[Token]*time.Timer
}

// NewTimers creates a timer-backed scheduler.
func NewTimers() *Timers {
	return &Timers{timers: make(map[Token]*time.Timer)}
}

// Post runs fn on its own goroutine.
func (t *Timers) Post(fn func()) {
	go fn()
}

// PostDelayed schedules fn to run once after d.
func (t *Timers) PostDelayed(d time.Duration, fn func()) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	tok := t.next
	t.timers[tok] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, tok)
		t.mu.Unlock()
		fn()
	})
	return tok
}

// Cancel stops the delayed post identified by tok if it has not fired yet.
func (t *Timers) Cancel(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[tok]; ok {
		timer.Stop()
		delete(t.timers, tok)
	}
}
