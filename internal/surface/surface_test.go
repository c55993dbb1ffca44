package surface

import (
	"io"
	"log/slog"
	"testing"
)

func newTestTable() *Table {
	return NewTable(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAllocateAndReturn(t *testing.T) {
	tbl := newTestTable()

	h := tbl.Allocate("app-window")
	if h.ID == "" {
		t.Fatal("Allocate returned handle with empty ID")
	}
	if h.Layer != "app-window" {
		t.Errorf("Layer = %q, want %q", h.Layer, "app-window")
	}
	if !tbl.IsLive(h) {
		t.Error("freshly allocated handle is not live")
	}
	if got := tbl.LiveCount(); got != 1 {
		t.Errorf("LiveCount = %d, want 1", got)
	}

	tbl.ReturnOwnership(h)
	if tbl.IsLive(h) {
		t.Error("returned handle still live")
	}
	if got := tbl.ReturnedCount(); got != 1 {
		t.Errorf("ReturnedCount = %d, want 1", got)
	}
}

func TestReturnOwnershipTwiceIsNoOp(t *testing.T) {
	tbl := newTestTable()
	h := tbl.Allocate("leash")

	tbl.ReturnOwnership(h)
	tbl.ReturnOwnership(h)

	if got := tbl.ReturnedCount(); got != 1 {
		t.Errorf("ReturnedCount = %d, want 1 after double return", got)
	}
	if got := len(tbl.Journal()); got != 1 {
		t.Errorf("journal has %d transactions, want 1", got)
	}
}

func TestTransactionCommitsOnOutermostClose(t *testing.T) {
	tbl := newTestTable()
	h := tbl.Allocate("leash")

	tx := tbl.OpenTransaction()
	tx.SetLayer(h, 5)

	inner := tbl.OpenTransaction()
	if inner != tx {
		t.Fatal("nested OpenTransaction returned a different transaction")
	}
	inner.SetPosition(h, 10, 20)
	tbl.CloseTransaction("inner")

	if len(tbl.Journal()) != 0 {
		t.Fatal("transaction committed before outermost close")
	}
	if tx.Committed() {
		t.Fatal("transaction marked committed before outermost close")
	}

	tx.SetCrop(h, 100, 200)
	tbl.CloseTransaction("outer")

	journal := tbl.Journal()
	if len(journal) != 1 {
		t.Fatalf("journal has %d transactions, want 1", len(journal))
	}
	if !journal[0].Committed() {
		t.Error("committed transaction not marked committed")
	}

	ops := journal[0].Ops()
	wantKinds := []OpKind{OpSetLayer, OpSetPosition, OpSetCrop}
	if len(ops) != len(wantKinds) {
		t.Fatalf("got %d ops, want %d", len(ops), len(wantKinds))
	}
	for i, k := range wantKinds {
		if ops[i].Kind != k {
			t.Errorf("op[%d].Kind = %q, want %q", i, ops[i].Kind, k)
		}
	}
}

func TestReturnInsideTransactionJoinsIt(t *testing.T) {
	tbl := newTestTable()
	h := tbl.Allocate("leash")

	tbl.OpenTransaction()
	tbl.ReturnOwnership(h)

	if len(tbl.Journal()) != 0 {
		t.Fatal("release committed before transaction close")
	}

	tbl.CloseTransaction("finalize")

	journal := tbl.Journal()
	if len(journal) != 1 {
		t.Fatalf("journal has %d transactions, want 1", len(journal))
	}
	ops := journal[0].Ops()
	if len(ops) != 1 || ops[0].Kind != OpRelease {
		t.Fatalf("ops = %+v, want single release", ops)
	}
	if ops[0].Handle != h.ID {
		t.Errorf("release handle = %q, want %q", ops[0].Handle, h.ID)
	}
}

func TestReturnOutsideTransactionCommitsStandalone(t *testing.T) {
	tbl := newTestTable()
	h := tbl.Allocate("leash")

	tbl.ReturnOwnership(h)

	journal := tbl.Journal()
	if len(journal) != 1 {
		t.Fatalf("journal has %d transactions, want 1", len(journal))
	}
	if !journal[0].Committed() {
		t.Error("standalone release not committed")
	}
}

func TestCloseUnopenedTransactionIsIgnored(t *testing.T) {
	tbl := newTestTable()
	tbl.CloseTransaction("nowhere")

	if got := len(tbl.Journal()); got != 0 {
		t.Errorf("journal has %d transactions, want 0", got)
	}
}
