package emit

import "github.com/rvrecompiler/rvr/internal/cfgbuild"

// DispatchTable is the backend-agnostic layout for resolving a dynamic
// jump at runtime (spec §4.E "dispatch table"): a dense table covering
// every 2-byte-aligned slot between the lowest and highest known block
// start. The 2-byte stride (not 4) is required so C-extension
// (compressed, 2-byte-aligned) jump targets address a real slot
// instead of colliding with or skipping past their neighbor.
type DispatchTable struct {
	Base     uint64
	NumSlots uint64
	Targets  []uint64 // every known block start, ascending; the dense table's non-filler slots
}

// BuildDispatchTable lays out every block start the CFG builder
// discovered in cfg as a dense, fully covering table keyed by
// (pc-Base)>>1, grounded on
// original_source/crates/rvr-emit/src/c/header/dispatch.rs's
// `dispatch_index`. A merged block's start address is the only
// address CFG.Resolve can turn a dynamic jump into an emitted
// function call for, so the full set of block starts -- not the
// never-populated Terminator.Resolved hint list -- is the real target
// set: every JALR / c.jr / c.jalr return address that lands inside a
// known block resolves through this table; slots that don't
// correspond to any block start are left for the backend to fill with
// a trap stub, since a jump there is a guest-level bug.
func BuildDispatchTable(cfg *cfgbuild.CFG) DispatchTable {
	targets := SortedDispatchTargets(cfg)
	if len(targets) == 0 {
		return DispatchTable{}
	}
	base := targets[0]
	top := targets[len(targets)-1]
	numSlots := (top-base)/2 + 1
	return DispatchTable{Base: base, NumSlots: numSlots, Targets: targets}
}
