// Package emit turns an absorbed CFG into a loadable artifact (spec
// §7 "Code generation"): one native function per merged basic block,
// a dispatch table resolving dynamic jumps, and a narrow C ABI entry
// point (rv_execute_from) the runtime crosses with purego.
package emit

import (
	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

// TracerKind selects which instrumentation hooks the emitted code
// calls out to (spec §7 "tracer flavors"). The zero value is the
// fastest: no hooks at all.
type TracerKind uint8

const (
	TracerNone TracerKind = iota
	TracerPreflight
	TracerStats
	TracerDebug
	TracerSpike
	TracerDiff
	TracerBufferedDiff
	TracerFfi
	TracerDynamic
)

func (k TracerKind) String() string {
	switch k {
	case TracerNone:
		return "none"
	case TracerPreflight:
		return "preflight"
	case TracerStats:
		return "stats"
	case TracerDebug:
		return "debug"
	case TracerSpike:
		return "spike"
	case TracerDiff:
		return "diff"
	case TracerBufferedDiff:
		return "buffered_diff"
	case TracerFfi:
		return "ffi"
	case TracerDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// InstretMode selects how (and whether) the emitted code tracks
// retired-instruction count, needed for GDB-style cooperative stepping
// (spec §7 "instret/suspend modes").
type InstretMode uint8

const (
	InstretOff InstretMode = iota
	InstretCount
	InstretSuspend
	InstretPerInstruction
)

// ModuleMeta configures one compilation of a CFG into a backend
// module.
type ModuleMeta struct {
	Width           xlen.Width
	Tracer          TracerKind
	Instret         InstretMode
	HotRegs         []uint8
	CompactDispatch bool // carried from the config; the C backend does not read it and always emits function pointers
	EntrySymbol     string
}

// Backend lowers one CFG to source/object text for a target (spec §7:
// C is the primary backend; ARM64/x86-64 assembly are alternates).
type Backend interface {
	// Name identifies the backend ("c" for the C backend).
	Name() string
	// EmitModule renders the whole compilation unit: block functions,
	// dispatch table, and entry point.
	EmitModule(cfg *cfgbuild.CFG, meta ModuleMeta) (string, error)
}
