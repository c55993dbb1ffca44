package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/runner"
	"github.com/halverson/marionette/internal/sched"
)

// Spec describes the remote animator's terms for one transition.
type Spec struct {
	// Link is the channel to the remote animator.
	Link runner.Link

	// DurationMS is the intended animation duration, passed to auxiliary
	// animations and exposed as the adapters' duration hint.
	DurationMS int64

	// ChangeNeedsSnapshot requests a pre-change thumbnail surface for
	// records created with start bounds.
	ChangeNeedsSnapshot bool

	// CallingPID and CallingUID identify the process driving the animation.
	CallingPID int
	CallingUID int
}

// Batch owns the pending records and auxiliary animations of one transition
// and drives the start/finish/cancel protocol against the remote animator.
// All mutable state is guarded by the service's shared lock.
type Batch struct {
	svc    *Service
	id     string
	spec   Spec
	logger *slog.Logger

	createdAt time.Time

	// Guarded by svc.mu.
	pending      []*Record
	pendingAux   []*Adapter
	started      bool
	canceled     bool
	finished     bool
	cancelReason string
	finishToken  string
	deathSub     runner.SubID
	watching     bool
	timeoutTok   sched.Token
	timeoutArmed bool
}

// ID returns the batch identifier.
func (b *Batch) ID() string {
	return b.id
}

// Canceled reports whether the batch has been canceled.
func (b *Batch) Canceled() bool {
	b.svc.mu.Lock()
	defer b.svc.mu.Unlock()
	return b.canceled
}

// Finished reports whether the batch has been finalized.
func (b *Batch) Finished() bool {
	b.svc.mu.Lock()
	defer b.svc.mu.Unlock()
	return b.finished
}

// PendingCount returns the number of records still bound to live surfaces.
func (b *Batch) PendingCount() int {
	b.svc.mu.Lock()
	defer b.svc.mu.Unlock()
	return len(b.pending)
}

// AddRecord appends a record for one element of the transition. endPos and
// endBounds describe the element's end state in screen coordinates;
// startBounds, when given, is the pre-transition state. A thumbnail adapter
// for the pre-change snapshot is created when the spec requests one and
// startBounds is present. Records may only be added before Start.
func (b *Batch) AddRecord(elem Element, endPos model.Point, endBounds model.Rect, startBounds *model.Rect) *Record {
	b.svc.mu.Lock()
	defer b.svc.mu.Unlock()

	if b.started || b.finished {
		b.logger.Error("record added after batch start", "element", elem.Key())
		return nil
	}

	rec := &Record{batch: b, elem: elem}
	rec.adapter = newAdapter(b, rec, KindPrimary, endPos, endBounds)
	if startBounds != nil {
		sb := *startBounds
		rec.startBounds = &sb
		if b.spec.ChangeNeedsSnapshot {
			rec.thumbnail = newAdapter(b, rec, KindThumbnail, model.Point{}, sb.OffsetTo(0, 0))
		}
	}
	b.pending = append(b.pending, rec)

	b.logger.Debug("record added", "element", elem.Key())
	return rec
}

// Start hands the batch to the remote animator once every surface has been
// materialized. If there is nothing to animate, or the batch was canceled
// while waiting, it finalizes immediately without arming the deadline or
// calling out.
func (b *Batch) Start() {
	b.svc.mu.Lock()
	if b.finished || b.started {
		b.svc.mu.Unlock()
		return
	}

	if len(b.pending) == 0 || b.canceled {
		canceled := b.canceled
		b.svc.mu.Unlock()
		b.logger.Debug("nothing to animate", "canceled", canceled)
		b.finish()
		return
	}

	// Scale the deadline with the animator speed the system is running at,
	// so slow-motion debugging does not cancel in-flight animations.
	scale := b.svc.scale()
	b.timeoutTok = b.svc.scheduler.PostDelayed(
		time.Duration(float64(b.svc.baseTimeout)*scale),
		func() { b.Cancel("timeout") },
	)
	b.timeoutArmed = true
	b.finishToken = b.svc.tokens.register(b)

	appTargets := b.createAppTargetsLocked()
	if len(appTargets) == 0 {
		b.svc.mu.Unlock()
		b.logger.Debug("no targets to animate")
		b.finish()
		return
	}

	auxTargets := b.createAuxTargetsLocked()
	token := b.finishToken
	link := b.spec.Link
	b.started = true
	b.svc.mu.Unlock()

	// Flag the animating process before the start call goes out, so that a
	// finalize racing with it always clears the flag last.
	b.setRunningRemoteAnimation(true)
	batchesStarted.Inc()
	b.svc.events.Publish(b.id, fmt.Sprintf("started app=%d aux=%d", len(appTargets), len(auxTargets)))

	if b.svc.journal != nil {
		err := b.svc.journal.MarkTransitionRunning(context.Background(), b.id, len(appTargets), len(auxTargets))
		if err != nil {
			b.logger.Error("failed to journal running transition", "error", err)
		}
	}

	// The start call goes out on the post-commit queue so that surface
	// transactions for the current frame are applied before the remote
	// party takes control.
	b.svc.scheduler.Post(func() {
		b.watchRunner()
		if err := link.StartAnimation(appTargets, auxTargets, token); err != nil {
			b.logger.Error("failed to start remote animation", "error", err)
			b.finish()
			return
		}
		b.logger.Info("remote animation started",
			"app_targets", len(appTargets),
			"aux_targets", len(auxTargets),
		)
	})
}

// Cancel aborts the batch. The first call wins; cancellation is monotonic
// and a second call is a no-op. The remote animator is notified best-effort
// after local state is finalized.
func (b *Batch) Cancel(reason string) {
	b.svc.mu.Lock()
	if b.canceled {
		b.svc.mu.Unlock()
		return
	}
	b.canceled = true
	b.cancelReason = reason
	b.svc.mu.Unlock()

	b.logger.Info("canceling remote animation", "reason", reason)
	batchCancels.WithLabelValues(cancelReasonLabel(reason)).Inc()
	b.svc.events.Publish(b.id, "canceled: "+reason)

	b.finish()

	if err := b.spec.Link.CancelAnimation(); err != nil {
		b.logger.Error("failed to notify animator of cancel", "error", err)
	}
}

// finish runs the terminal transition exactly once: it disarms the deadline,
// unlinks liveness monitoring, invalidates the finish token, and returns
// every still-captured surface to local control inside one transaction.
func (b *Batch) finish() {
	b.svc.mu.Lock()
	if b.finished {
		b.svc.mu.Unlock()
		return
	}
	b.finished = true

	if b.timeoutArmed {
		b.svc.scheduler.Cancel(b.timeoutTok)
		b.timeoutArmed = false
	}
	if b.watching {
		b.spec.Link.Unwatch(b.deathSub)
		b.watching = false
	}
	if b.finishToken != "" {
		b.svc.tokens.invalidate(b.finishToken)
		b.finishToken = ""
	}

	b.svc.surfaces.OpenTransaction()
	for i := len(b.pending) - 1; i >= 0; i-- {
		rec := b.pending[i]
		if rec.adapter != nil {
			rec.adapter.deliverFinishLocked()
		}
		if rec.thumbnail != nil {
			rec.thumbnail.deliverFinishLocked()
		}
		b.pending = append(b.pending[:i], b.pending[i+1:]...)
		b.logger.Debug("element animation finished", "element", rec.elem.Key())
	}
	for i := len(b.pendingAux) - 1; i >= 0; i-- {
		aux := b.pendingAux[i]
		aux.deliverFinishLocked()
		b.pendingAux = append(b.pendingAux[:i], b.pendingAux[i+1:]...)
		b.logger.Debug("auxiliary animation finished", "key", aux.key)
	}
	b.svc.surfaces.CloseTransaction("batchFinished")

	canceled := b.canceled
	reason := b.cancelReason
	b.svc.mu.Unlock()

	b.setRunningRemoteAnimation(false)
	b.svc.dropLive(b.id)
	batchesInflight.Dec()

	status := model.StatusFinished
	if canceled {
		status = model.StatusCanceled
	}
	batchesFinished.WithLabelValues(status).Inc()

	if b.svc.journal != nil {
		if err := b.svc.journal.MarkTransitionFinished(context.Background(), b.id, status, reason); err != nil {
			b.logger.Error("failed to journal finished transition", "error", err)
		}
	}

	b.svc.events.Publish(b.id, "finished: "+status)
	b.svc.events.Close(b.id)
	b.logger.Info("remote animation finished", "status", status)
}

// createAppTargetsLocked assembles the target snapshot list in
// reverse-insertion order. Records whose element can no longer be animated
// are dropped from the batch, but any surface they already captured is live
// and still gets its finish signal here.
func (b *Batch) createAppTargetsLocked() []*model.Target {
	var targets []*model.Target
	for i := len(b.pending) - 1; i >= 0; i-- {
		rec := b.pending[i]
		target := rec.createTargetLocked()
		if target != nil {
			targets = append(targets, target)
			continue
		}

		b.logger.Debug("dropping element from batch", "element", rec.elem.Key())
		if rec.adapter != nil {
			rec.adapter.deliverFinishLocked()
		}
		if rec.thumbnail != nil {
			rec.thumbnail.deliverFinishLocked()
		}
		b.pending = append(b.pending[:i], b.pending[i+1:]...)
	}
	return targets
}

// createAuxTargetsLocked asks the auxiliary-animation collaborator to start
// background-layer animations for the transition.
func (b *Batch) createAuxTargetsLocked() []*model.Target {
	if b.svc.aux == nil {
		return nil
	}
	return b.svc.aux.StartAux(b, b.spec.DurationMS)
}

// AddAux registers an auxiliary adapter with the batch. Only valid from
// within AuxProvider.StartAux, which runs under the shared lock.
func (b *Batch) AddAux(a *Adapter) {
	b.pendingAux = append(b.pendingAux, a)
}

// watchRunner links the liveness monitor to the remote animator so that
// losing the peer cancels the batch.
func (b *Batch) watchRunner() {
	b.svc.mu.Lock()
	if b.watching || b.finished {
		b.svc.mu.Unlock()
		return
	}
	b.watching = true
	b.svc.mu.Unlock()

	// Subscribe outside the lock: a peer that is already gone fires the
	// callback inline, and the callback takes the lock itself.
	sub := b.spec.Link.Watch(func() { b.Cancel("peerLost") })

	b.svc.mu.Lock()
	b.deathSub = sub
	b.svc.mu.Unlock()
}

// setRunningRemoteAnimation flags the animating process on its control
// record. A zero calling pid is a programming error on the caller's side.
func (b *Batch) setRunningRemoteAnimation(running bool) {
	if b.spec.CallingPID == 0 {
		panic("batch: calling pid of remote animation was zero")
	}

	rec := b.svc.procs.Lookup(b.spec.CallingPID, b.spec.CallingUID)
	if rec == nil {
		b.logger.Warn("no process record for animator",
			"pid", b.spec.CallingPID,
			"uid", b.spec.CallingUID,
		)
		return
	}
	rec.SetRunningRemoteAnimation(running)
}

// removeRecordLocked drops a record from the pending set by identity.
// Indexes are never trusted across concurrent cancellations.
func (b *Batch) removeRecordLocked(rec *Record) {
	for i, r := range b.pending {
		if r == rec {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}

// removeAuxLocked drops an auxiliary adapter from the pending set by
// identity.
func (b *Batch) removeAuxLocked(a *Adapter) {
	for i, aux := range b.pendingAux {
		if aux == a {
			b.pendingAux = append(b.pendingAux[:i], b.pendingAux[i+1:]...)
			return
		}
	}
}
