package batch

import (
	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/surface"
)

// Container is the windowing-side view of the container owning an animated
// element. The opening and changing sets drive mode derivation.
type Container interface {
	ID() int32
	Bounds() model.Rect
	IsOpening(key string) bool
	IsChanging(key string) bool
}

// Element is the windowing-side view of one animated element. Accessors
// returning nil mean the underlying object is gone, which is an expected
// outcome during a transition, not an error.
type Element interface {
	Key() string
	Container() Container
	Surface() *surface.Handle
	OrderIndex() int32
	FillsParent() bool
	ClipRect() model.Rect
	ContentInsets() model.Insets
	LetterboxInsets() model.Insets
}

// Record tracks the animation state for one element of a transition: the
// primary adapter interfacing with its moving surface and, for change
// transitions with a snapshot, a thumbnail adapter for the start state. It
// bridges what the remote animator sees (the Target) and what the local
// side sees (the adapters holding captured leashes).
type Record struct {
	batch *Batch
	elem  Element

	// Guarded by the service lock.
	adapter     *Adapter
	thumbnail   *Adapter
	startBounds *model.Rect
	target      *model.Target
}

// Element returns the animated element this record tracks.
func (r *Record) Element() Element {
	return r.elem
}

// Adapter returns the primary surface adapter.
func (r *Record) Adapter() *Adapter {
	r.batch.svc.mu.Lock()
	defer r.batch.svc.mu.Unlock()
	return r.adapter
}

// ThumbnailAdapter returns the pre-change snapshot adapter, or nil when the
// transition does not use one.
func (r *Record) ThumbnailAdapter() *Adapter {
	r.batch.svc.mu.Lock()
	defer r.batch.svc.mu.Unlock()
	return r.thumbnail
}

// createTargetLocked builds the immutable snapshot handed to the remote
// animator. It returns nil when the element can no longer be animated: its
// container or main surface is gone, the primary adapter was torn down, or
// the surface layer has not yet delivered the adapter's leash and finish
// callback. Callers must drop the record from the batch in that case.
func (r *Record) createTargetLocked() *model.Target {
	if r.target != nil {
		return r.target
	}

	container := r.elem.Container()
	mainSurface := r.elem.Surface()
	if container == nil || mainSurface == nil || r.adapter == nil ||
		r.adapter.capturedFinish == nil || r.adapter.capturedLeash == nil {
		return nil
	}

	var thumbnail *surface.Handle
	if r.thumbnail != nil {
		thumbnail = r.thumbnail.capturedLeash
	}

	r.target = &model.Target{
		ContainerID:     container.ID(),
		Mode:            r.modeLocked(container),
		Leash:           r.adapter.capturedLeash,
		Translucent:     !r.elem.FillsParent(),
		ClipRect:        r.elem.ClipRect(),
		ContentInsets:   model.AddInsets(r.elem.ContentInsets(), r.elem.LetterboxInsets()),
		OrderIndex:      r.elem.OrderIndex(),
		Position:        r.adapter.endPos,
		Bounds:          r.adapter.endBounds,
		ContainerBounds: container.Bounds(),
		StartBounds:     r.startBounds,
		Thumbnail:       thumbnail,
	}
	return r.target
}

// modeLocked derives the element's transition mode. Opening wins over
// changing; anything else is closing.
func (r *Record) modeLocked(container Container) model.Mode {
	switch {
	case container.IsOpening(r.elem.Key()):
		return model.ModeOpening
	case container.IsChanging(r.elem.Key()):
		return model.ModeChanging
	default:
		return model.ModeClosing
	}
}
