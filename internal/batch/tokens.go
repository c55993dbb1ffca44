package batch

import (
	"sync"

	"github.com/halverson/marionette/internal/model"
)

// TokenRegistry maps finish tokens to their batches. The remote side only
// ever holds the opaque token string; this registry is the single place a
// token resolves back to an orchestrator object, so a retained token on the
// remote side cannot extend a batch's lifetime.
type TokenRegistry struct {
	mu      sync.Mutex
	batches map[string]*Batch
}

func newTokenRegistry() *TokenRegistry {
	return &TokenRegistry{batches: make(map[string]*Batch)}
}

// register issues a fresh token for the batch.
func (r *TokenRegistry) register(b *Batch) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := model.NewID()
	r.batches[token] = b
	return token
}

// invalidate drops the token so later acknowledgements are no-ops.
func (r *TokenRegistry) invalidate(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, token)
}

// Dispatch delivers a finished acknowledgement from the remote side. The
// first dispatch of a valid token finalizes its batch and drops the mapping;
// duplicate or late acknowledgements report false and change nothing. Safe
// to call from any goroutine: finalization serializes on the orchestrator
// lock before touching batch state.
func (r *TokenRegistry) Dispatch(token string) bool {
	r.mu.Lock()
	b, ok := r.batches[token]
	delete(r.batches, token)
	r.mu.Unlock()

	if !ok {
		return false
	}
	b.finish()
	return true
}
