// Package runner is the channel to the out-of-process animator: the start
// and cancel calls, the finished acknowledgement path back into the
// orchestrator, and liveness monitoring of the peer.
package runner

import (
	"sync"

	"github.com/halverson/marionette/internal/model"
)

// SubID identifies a liveness subscription.
type SubID uint64

// Link is the callable surface of one remote animator.
type Link interface {
	// StartAnimation hands the target batch to the animator. The animator
	// acknowledges completion by sending the token back on a finished frame.
	StartAnimation(app, aux []*model.Target, token string) error

	// CancelAnimation tells the animator to abandon the batch. Best effort;
	// the orchestrator never waits for it.
	CancelAnimation() error

	// Watch subscribes to loss of the peer. fn fires at most once, when the
	// peer is gone.
	Watch(fn func()) SubID

	// Unwatch cancels a subscription. Unsubscribing twice is a no-op.
	Unwatch(id SubID)
}

// Acker receives finished acknowledgements read off the wire. Dispatch
// reports whether the token was still valid.
type Acker interface {
	Dispatch(token string) bool
}

// DeathWatcher manages cancellable liveness subscriptions for one peer.
// It is safe for concurrent use.
type DeathWatcher struct {
	mu   sync.Mutex
	next SubID
	subs map[SubID]func()
	dead bool
}

// NewDeathWatcher creates a watcher for a live peer.
func NewDeathWatcher() *DeathWatcher {
	return &DeathWatcher{subs: make(map[SubID]func())}
}

// Subscribe registers fn to run when the peer is lost. If the peer is
// already gone, fn runs immediately.
func (w *DeathWatcher) Subscribe(fn func()) SubID {
	w.mu.Lock()
	if w.dead {
		w.mu.Unlock()
		fn()
		return 0
	}
	w.next++
	id := w.next
	w.subs[id] = fn
	w.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown or already-removed IDs are
// ignored.
func (w *DeathWatcher) Unsubscribe(id SubID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subs, id)
}

// NotifyDeath marks the peer dead and fires every subscription once.
// Subsequent calls are no-ops.
func (w *DeathWatcher) NotifyDeath() {
	w.mu.Lock()
	if w.dead {
		w.mu.Unlock()
		return
	}
	w.dead = true
	subs := make([]func(), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.subs = make(map[SubID]func())
	w.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Dead reports whether the peer has been lost.
func (w *DeathWatcher) Dead() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dead
}
