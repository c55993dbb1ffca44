// Package batch orchestrates remote surface animations. A Batch hands a set
// of surfaces to an out-of-process animator, tracks their lifecycle while
// the remote party owns them, and guarantees that ownership returns to the
// local side exactly once — on normal completion, peer death, cancellation,
// or timeout.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/proc"
	"github.com/halverson/marionette/internal/sched"
	"github.com/halverson/marionette/internal/store"
	"github.com/halverson/marionette/internal/surface"
)

// DefaultTimeout is the base deadline for a remote animator to acknowledge
// completion, before animator-scale adjustment.
const DefaultTimeout = 2000 * time.Millisecond

// AuxProvider supplies auxiliary (background-layer) animations for a
// transition. StartAux runs under the shared orchestrator lock; an
// implementation registers each adapter it creates via Batch.AddAux and
// returns the matching targets.
type AuxProvider interface {
	StartAux(b *Batch, durationMS int64) []*model.Target
}

// Options configures a Service.
type Options struct {
	Surfaces  *surface.Table
	Scheduler sched.Scheduler
	Procs     *proc.Controller
	Journal   store.Store // optional; nil disables journaling
	Aux       AuxProvider // optional; nil means no auxiliary animations
	Logger    *slog.Logger

	// BaseTimeout is the unscaled animator deadline. Zero means DefaultTimeout.
	BaseTimeout time.Duration

	// AnimatorScale returns the system-wide animation speed multiplier.
	// Nil means a fixed 1.0.
	AnimatorScale func() float64
}

// Service owns the state shared across batches: the global orchestration
// lock, the surface table, the token registry the remote side acknowledges
// through, and the set of in-flight batches.
type Service struct {
	mu        sync.Mutex // the shared orchestration lock; guards all batch state
	surfaces  *surface.Table
	scheduler sched.Scheduler
	procs     *proc.Controller
	journal   store.Store
	aux       AuxProvider
	logger    *slog.Logger

	baseTimeout time.Duration
	scale       func() float64

	tokens *TokenRegistry
	events *EventBroker
	live   map[string]*Batch
}

// NewService creates an orchestration service.
func NewService(opts Options) *Service {
	if opts.BaseTimeout == 0 {
		opts.BaseTimeout = DefaultTimeout
	}
	if opts.AnimatorScale == nil {
		opts.AnimatorScale = func() float64 { return 1.0 }
	}

	return &Service{
		surfaces:    opts.Surfaces,
		scheduler:   opts.Scheduler,
		procs:       opts.Procs,
		journal:     opts.Journal,
		aux:         opts.Aux,
		logger:      opts.Logger,
		baseTimeout: opts.BaseTimeout,
		scale:       opts.AnimatorScale,
		tokens:      newTokenRegistry(),
		events:      NewEventBroker(),
		live:        make(map[string]*Batch),
	}
}

// Tokens returns the registry remote finished-acknowledgements dispatch
// through.
func (s *Service) Tokens() *TokenRegistry {
	return s.tokens
}

// Events returns the broker publishing batch lifecycle events.
func (s *Service) Events() *EventBroker {
	return s.events
}

// NewBatch creates an empty batch for one transition.
func (s *Service) NewBatch(spec Spec) *Batch {
	b := &Batch{
		svc:       s,
		id:        model.NewID(),
		spec:      spec,
		createdAt: time.Now().UTC(),
	}
	b.logger = s.logger.With("batch_id", b.id)

	s.mu.Lock()
	s.live[b.id] = b
	s.mu.Unlock()
	batchesInflight.Inc()

	if s.journal != nil {
		t := &model.Transition{
			ID:         b.id,
			Status:     model.StatusPending,
			CallingPID: spec.CallingPID,
			CallingUID: spec.CallingUID,
			CreatedAt:  b.createdAt,
		}
		if err := s.journal.CreateTransition(context.Background(), t); err != nil {
			b.logger.Error("failed to journal transition", "error", err)
		}
	}

	return b
}

// LiveBatch returns the in-flight batch with the given ID, or nil.
func (s *Service) LiveBatch(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[id]
}

// LiveCount returns the number of batches not yet finalized.
func (s *Service) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// CancelBatch cancels an in-flight batch by ID. It reports whether a live
// batch with that ID existed.
func (s *Service) CancelBatch(id, reason string) bool {
	s.mu.Lock()
	b := s.live[id]
	s.mu.Unlock()

	if b == nil {
		return false
	}
	b.Cancel(reason)
	return true
}

// dropLive removes a finalized batch from the in-flight set.
func (s *Service) dropLive(id string) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}
