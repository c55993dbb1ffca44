package runner

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/halverson/marionette/internal/model"
)

// MaxFrameSize is the maximum allowed frame payload (16 MiB).
const MaxFrameSize = 16 << 20

// Frame types exchanged between orchestrator and animator.
const (
	// FrameStart carries a batch of targets from orchestrator to animator.
	FrameStart = "start"
	// FrameCancel tells the animator to abandon the in-flight batch.
	FrameCancel = "cancel"
	// FrameFinished is the animator's acknowledgement that it is done with
	// the batch identified by Token.
	FrameFinished = "finished"
)

// StartPayload is the body of a start frame.
type StartPayload struct {
	Token string          `json:"token"`
	App   []*model.Target `json:"app"`
	Aux   []*model.Target `json:"aux,omitempty"`
}

// Frame is the envelope for all orchestrator↔animator messages.
type Frame struct {
	Type  string        `json:"type"`
	Start *StartPayload `json:"start,omitempty"`
	Token string        `json:"token,omitempty"`
}

// WriteFrame writes a length-prefixed JSON frame to w.
// The wire format is a 4-byte big-endian length prefix followed by the JSON
// payload.
func WriteFrame(w io.Writer, f *Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	length := uint32(len(data))
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	return nil
}

// ReadFrame reads one length-prefixed JSON frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame size %d exceeds maximum %d", length, MaxFrameSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	f := &Frame{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}

	return f, nil
}
