package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler for tests. Posts run synchronously on the caller's
// goroutine and delayed posts fire only when the test advances the clock.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	next    Token
	pending []*manualEntry
}

type manualEntry struct {
	at  time.Duration
	tok Token
	fn  func()
}

// NewManual creates a manual scheduler with the clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post runs fn immediately on the calling goroutine.
func (m *Manual) Post(fn func()) {
	fn()
}

// PostDelayed schedules fn to fire when the clock reaches now+d.
func (m *Manual) PostDelayed(d time.Duration, fn func()) Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	e := &manualEntry{at: m.now + d, tok: m.next, fn: fn}
	m.pending = append(m.pending, e)
	return e.tok
}

// Cancel removes a pending delayed post.
func (m *Manual) Cancel(tok Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.pending {
		if e.tok == tok {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Now returns the current manual clock reading.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d and fires every delayed post whose
// deadline has been reached, in deadline order. Callbacks run on the calling
// goroutine without the scheduler lock held, so they may schedule or cancel
// further posts.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	for {
		e := m.popDue(now)
		if e == nil {
			return
		}
		e.fn()
	}
}

// popDue removes and returns the earliest pending entry at or before now.
func (m *Manual) popDue(now time.Duration) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.pending, func(i, j int) bool {
		return m.pending[i].at < m.pending[j].at
	})
	if len(m.pending) == 0 || m.pending[0].at > now {
		return nil
	}
	e := m.pending[0]
	m.pending = m.pending[1:]
	return e
}
