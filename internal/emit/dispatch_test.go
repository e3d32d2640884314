package emit

import (
	"testing"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/ir"
)

// dispatchCFG builds a CFG with a genuine dynamic jump (no Resolved
// hint, matching every real lift path) returning into a block whose
// start isn't adjacent by 4 bytes to its neighbor, so a stale
// 4-byte-stride table would misindex it.
func dispatchCFG() *cfgbuild.CFG {
	entry := ir.NewBlockIR(0x1000)
	entry.Push(ir.InstrIR{Pc: 0x1000, Size: 4, Terminator: ir.JumpDyn(ir.Reg(1), nil)})
	landing := ir.NewBlockIR(0x1006) // 2-byte (compressed) aligned, not 4-byte aligned
	landing.Push(ir.InstrIR{Pc: 0x1006, Size: 2, Terminator: ir.Exit(ir.Const(1))})
	return &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: entry, 0x1006: landing},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
}

func TestBuildDispatchTableCoversAllBlockStartsDensely(t *testing.T) {
	table := BuildDispatchTable(dispatchCFG())
	if table.Base != 0x1000 {
		t.Fatalf("expected base 0x1000, got %#x", table.Base)
	}
	wantSlots := uint64((0x1006-0x1000)/2 + 1)
	if table.NumSlots != wantSlots {
		t.Fatalf("expected %d slots, got %d", wantSlots, table.NumSlots)
	}
	if len(table.Targets) != 2 {
		t.Fatalf("expected 2 known targets, got %d", len(table.Targets))
	}
}

func TestBuildDispatchTableEmptyCFGYieldsEmptyTable(t *testing.T) {
	table := BuildDispatchTable(&cfgbuild.CFG{Blocks: map[uint64]*ir.BlockIR{}})
	if len(table.Targets) != 0 || table.NumSlots != 0 {
		t.Fatalf("expected an empty table, got %+v", table)
	}
}
