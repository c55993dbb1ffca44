package batch

import (
	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/surface"
)

// Kind tags what a surface adapter animates.
type Kind uint8

// Adapter kinds. Primary and thumbnail adapters belong to a record;
// auxiliary adapters animate background layers and stand alone.
const (
	KindPrimary Kind = iota
	KindThumbnail
	KindAuxiliary
)

// FinishFunc returns control of an adapter's leash to local ownership. It is
// invoked exactly once per captured adapter.
type FinishFunc func(*Adapter)

// Adapter interfaces one moving surface with the orchestrator. The surface
// layer delivers the leash and finish callback asynchronously through
// StartAnimation; until then the adapter cannot be part of a remote call.
type Adapter struct {
	batch  *Batch
	record *Record // nil for auxiliary adapters
	kind   Kind
	key    string // auxiliary adapters only

	endPos    model.Point
	endBounds model.Rect

	// Guarded by the service lock. StartAnimation is the sole writer of the
	// captured pair.
	capturedLeash  *surface.Handle
	capturedFinish FinishFunc
	started        bool
	delivered      bool
}

func newAdapter(b *Batch, rec *Record, kind Kind, endPos model.Point, endBounds model.Rect) *Adapter {
	return &Adapter{
		batch:     b,
		record:    rec,
		kind:      kind,
		endPos:    endPos,
		endBounds: endBounds,
	}
}

// NewAuxAdapter creates an adapter for a background-layer animation.
func NewAuxAdapter(b *Batch, key string, endPos model.Point, endBounds model.Rect) *Adapter {
	return &Adapter{
		batch:     b,
		kind:      KindAuxiliary,
		key:       key,
		endPos:    endPos,
		endBounds: endBounds,
	}
}

// Kind returns the adapter's kind tag.
func (a *Adapter) Kind() Kind {
	return a.kind
}

// DurationHint returns the intended animation duration in milliseconds.
func (a *Adapter) DurationHint() int64 {
	return a.batch.spec.DurationMS
}

// Leash returns the captured surface handle, or nil if the surface layer
// has not materialized it yet.
func (a *Adapter) Leash() *surface.Handle {
	a.batch.svc.mu.Lock()
	defer a.batch.svc.mu.Unlock()
	return a.capturedLeash
}

// StartAnimation is invoked by the surface layer once the leash for this
// adapter exists. It restores z-layering, position and crop so the surface
// shows correctly until the remote animator modifies it, then captures the
// leash and finish callback. Calling it twice on one adapter is a
// programming error.
func (a *Adapter) StartAnimation(leash *surface.Handle, tx *surface.Transaction, finish FinishFunc) {
	a.batch.svc.mu.Lock()
	defer a.batch.svc.mu.Unlock()

	if a.started {
		panic("batch: adapter animation started twice")
	}
	a.started = true

	if a.record != nil {
		tx.SetLayer(leash, a.record.elem.OrderIndex())
	}
	if a.record != nil && a.record.startBounds != nil {
		sb := *a.record.startBounds
		tx.SetPosition(leash, sb.Left, sb.Top)
		tx.SetCrop(leash, sb.Width(), sb.Height())
	} else {
		tx.SetPosition(leash, a.endPos.X, a.endPos.Y)
		tx.SetCrop(leash, a.endBounds.Width(), a.endBounds.Height())
	}

	a.capturedLeash = leash
	a.capturedFinish = finish
}

// OnCancelled is invoked by the surface layer when the surface backing this
// adapter is torn down before the remote animator finished with it. The
// adapter leaves its record; a record with no adapters left leaves the
// batch; a batch with nothing pending cancels as a whole.
func (a *Adapter) OnCancelled() {
	b := a.batch

	b.svc.mu.Lock()
	if a.kind == KindAuxiliary {
		// Auxiliary animations are decorative: the app animation goes on.
		b.removeAuxLocked(a)
		b.svc.mu.Unlock()
		return
	}

	rec := a.record
	if rec.adapter == a {
		rec.adapter = nil
	} else if rec.thumbnail == a {
		rec.thumbnail = nil
	}
	if rec.adapter == nil && rec.thumbnail == nil {
		b.removeRecordLocked(rec)
	}
	empty := len(b.pending) == 0
	b.svc.mu.Unlock()

	if empty {
		b.Cancel("allAnimationsCanceled")
	}
}

// deliverFinishLocked fires the captured finish callback once. Adapters that
// never captured a pair have no live resources and nothing to release.
func (a *Adapter) deliverFinishLocked() {
	if a.delivered || a.capturedFinish == nil {
		return
	}
	a.delivered = true
	finishSignals.Inc()
	a.capturedFinish(a)
}
