package model

import "github.com/halverson/marionette/internal/surface"

// Mode describes how an element participates in a transition.
type Mode string

// Transition participation modes. Derivation checks opening before changing;
// anything else is closing.
const (
	ModeOpening  Mode = "opening"
	ModeChanging Mode = "changing"
	ModeClosing  Mode = "closing"
)

// Target is the immutable description of one animated element handed to the
// remote animator. It is built once from a pending record and never mutated
// afterwards.
type Target struct {
	ContainerID     int32           `json:"container_id"`
	Mode            Mode            `json:"mode"`
	Leash           *surface.Handle `json:"leash"`
	Translucent     bool            `json:"translucent"`
	ClipRect        Rect            `json:"clip_rect"`
	ContentInsets   Insets          `json:"content_insets"`
	OrderIndex      int32           `json:"order_index"`
	Position        Point           `json:"position"`
	Bounds          Rect            `json:"bounds"`
	ContainerBounds Rect            `json:"container_bounds"`
	StartBounds     *Rect           `json:"start_bounds,omitempty"`
	Thumbnail       *surface.Handle `json:"thumbnail,omitempty"`
}
