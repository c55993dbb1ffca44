package surface

// OpKind identifies a transaction op.
type OpKind string

// Transaction op kinds.
const (
	OpSetLayer    OpKind = "set_layer"
	OpSetPosition OpKind = "set_position"
	OpSetCrop     OpKind = "set_crop"
	OpRelease     OpKind = "release"
)

// Op is one recorded drawing-state change for a handle.
type Op struct {
	Kind   OpKind `json:"kind"`
	Handle string `json:"handle"`
	Z      int32  `json:"z,omitempty"`
	X      int32  `json:"x,omitempty"`
	Y      int32  `json:"y,omitempty"`
	W      int32  `json:"w,omitempty"`
	H      int32  `json:"h,omitempty"`
}

// Transaction is an ordered op log applied atomically on the outermost
// CloseTransaction.
type Transaction struct {
	ops       []Op
	committed bool
}

// SetLayer records a z-order change for the handle.
func (tx *Transaction) SetLayer(h *Handle, z int32) {
	tx.ops = append(tx.ops, Op{Kind: OpSetLayer, Handle: h.ID, Z: z})
}

// SetPosition records a position change for the handle.
func (tx *Transaction) SetPosition(h *Handle, x, y int32) {
	tx.ops = append(tx.ops, Op{Kind: OpSetPosition, Handle: h.ID, X: x, Y: y})
}

// SetCrop records a crop-size change for the handle.
func (tx *Transaction) SetCrop(h *Handle, w, hgt int32) {
	tx.ops = append(tx.ops, Op{Kind: OpSetCrop, Handle: h.ID, W: w, H: hgt})
}

// Release records the return of the handle to local ownership.
func (tx *Transaction) Release(h *Handle) {
	tx.ops = append(tx.ops, Op{Kind: OpRelease, Handle: h.ID})
}

// Ops returns the recorded ops in append order.
func (tx *Transaction) Ops() []Op {
	return append([]Op(nil), tx.ops...)
}

// Committed reports whether the transaction has been applied.
func (tx *Transaction) Committed() bool {
	return tx.committed
}
