package runner

import (
	"bytes"
	"testing"

	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/surface"
)

func TestWriteReadStartFrame(t *testing.T) {
	original := &Frame{
		Type: FrameStart,
		Start: &StartPayload{
			Token: "tok-123",
			App: []*model.Target{
				{
					ContainerID: 7,
					Mode:        model.ModeOpening,
					Leash:       &surface.Handle{ID: "leash-1", Layer: "app"},
					Translucent: true,
					OrderIndex:  2,
					Position:    model.Point{X: 10, Y: 20},
					Bounds:      model.Rect{Left: 0, Top: 0, Right: 100, Bottom: 200},
				},
			},
			Aux: []*model.Target{
				{
					Mode:  model.ModeClosing,
					Leash: &surface.Handle{ID: "leash-2", Layer: "background"},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, original); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if decoded.Type != FrameStart {
		t.Errorf("Type = %q, want %q", decoded.Type, FrameStart)
	}
	if decoded.Start == nil {
		t.Fatal("Start payload is nil")
	}
	if decoded.Start.Token != "tok-123" {
		t.Errorf("Token = %q, want %q", decoded.Start.Token, "tok-123")
	}
	if len(decoded.Start.App) != 1 || len(decoded.Start.Aux) != 1 {
		t.Fatalf("app/aux lengths = %d/%d, want 1/1", len(decoded.Start.App), len(decoded.Start.Aux))
	}

	app := decoded.Start.App[0]
	if app.ContainerID != 7 {
		t.Errorf("ContainerID = %d, want 7", app.ContainerID)
	}
	if app.Mode != model.ModeOpening {
		t.Errorf("Mode = %q, want %q", app.Mode, model.ModeOpening)
	}
	if app.Leash == nil || app.Leash.ID != "leash-1" {
		t.Errorf("Leash = %+v, want ID leash-1", app.Leash)
	}
	if !app.Translucent {
		t.Error("Translucent = false, want true")
	}
	if app.Bounds.Width() != 100 || app.Bounds.Height() != 200 {
		t.Errorf("Bounds = %dx%d, want 100x200", app.Bounds.Width(), app.Bounds.Height())
	}
}

func TestWriteReadFinishedFrame(t *testing.T) {
	original := &Frame{Type: FrameFinished, Token: "tok-456"}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, original); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if decoded.Type != FrameFinished {
		t.Errorf("Type = %q, want %q", decoded.Type, FrameFinished)
	}
	if decoded.Token != "tok-456" {
		t.Errorf("Token = %q, want %q", decoded.Token, "tok-456")
	}
	if decoded.Start != nil {
		t.Error("Start payload should be nil for finished frames")
	}
}

func TestReadFrameTruncatedLength(t *testing.T) {
	// Only 2 bytes instead of 4, fails on the length prefix.
	buf := bytes.NewReader([]byte{0x00, 0x01})
	if _, err := ReadFrame(buf); err == nil {
		t.Fatal("expected error for truncated length prefix")
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	// Length prefix says 100 bytes, only 2 bytes of payload follow.
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x64})
	buf.Write([]byte{0x7B, 0x7D})

	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestReadFrameOversized(t *testing.T) {
	// Length prefix claims MaxFrameSize + 1, rejected before allocating.
	var buf bytes.Buffer
	oversize := uint32(MaxFrameSize + 1)
	buf.Write([]byte{
		byte(oversize >> 24), byte(oversize >> 16),
		byte(oversize >> 8), byte(oversize),
	})

	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for oversized frame")
	}
}
