// Package surface provides the opaque surface-handle table and the
// transaction log the orchestrator appends to. Handles (leashes) are
// allocated here, handed to a remote animator for the duration of a
// transition, and returned to local ownership exactly once through
// ReturnOwnership.
package surface

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Handle is an opaque reference to a drawable surface. The remote party may
// reposition and resize it through transaction ops but never owns it.
type Handle struct {
	ID    string `json:"id"`
	Layer string `json:"layer"`
}

// Table tracks live handles and the currently open transaction. Transaction
// open/close nests: ops accumulate until the outermost close applies them
// atomically to the journal.
type Table struct {
	mu       sync.Mutex
	logger   *slog.Logger
	live     map[string]*Handle
	current  *Transaction
	depth    int
	journal  []*Transaction
	returned int
}

// NewTable creates an empty handle table.
func NewTable(logger *slog.Logger) *Table {
	return &Table{
		logger: logger,
		live:   make(map[string]*Handle),
	}
}

// Allocate creates a new live handle with the given debug layer name.
func (t *Table) Allocate(layer string) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := &Handle{ID: ulid.Make().String(), Layer: layer}
	t.live[h.ID] = h
	liveHandles.Inc()
	return h
}

// IsLive reports whether the handle is still under remote control.
func (t *Table) IsLive(h *Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[h.ID]
	return ok
}

// LiveCount returns the number of handles not yet returned to local control.
func (t *Table) LiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// ReturnedCount returns the number of handles released so far.
func (t *Table) ReturnedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.returned
}

// OpenTransaction begins (or nests into) the pending transaction and returns
// it. Every OpenTransaction must be paired with a CloseTransaction.
func (t *Table) OpenTransaction() *Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		t.current = &Transaction{}
	}
	t.depth++
	return t.current
}

// CloseTransaction unwinds one level of nesting. The outermost close commits
// the accumulated ops to the journal in one step. The where tag identifies
// the closing call site in logs.
func (t *Table) CloseTransaction(where string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.depth == 0 {
		t.logger.Error("close of unopened surface transaction", "where", where)
		return
	}
	t.depth--
	if t.depth > 0 {
		return
	}

	tx := t.current
	t.current = nil
	tx.committed = true
	t.journal = append(t.journal, tx)
	transactionsCommitted.Inc()
	t.logger.Debug("surface transaction committed", "where", where, "ops", len(tx.ops))
}

// ReturnOwnership signals that control of the handle has passed back to the
// local side. The release op is appended to the pending transaction when one
// is open, so it applies in the same atomic step as the rest of the
// finalization. Returning a handle twice is a no-op.
func (t *Table) ReturnOwnership(h *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.live[h.ID]; !ok {
		t.logger.Warn("handle returned twice", "handle", h.ID, "layer", h.Layer)
		return
	}
	delete(t.live, h.ID)
	t.returned++
	liveHandles.Dec()
	handlesReturned.Inc()

	if t.current != nil {
		t.current.Release(h)
		return
	}
	// No transaction pending; record the release as its own committed step.
	tx := &Transaction{}
	tx.Release(h)
	tx.committed = true
	t.journal = append(t.journal, tx)
	transactionsCommitted.Inc()
}

// Journal returns the committed transactions in commit order.
func (t *Table) Journal() []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Transaction(nil), t.journal...)
}
