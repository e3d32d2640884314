package c

import (
	"context"
	"fmt"
	"strings"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/emit"
	"github.com/rvrecompiler/rvr/internal/htif"
	"github.com/rvrecompiler/rvr/internal/ir"
)

// Backend is the primary code generator: it renders a whole CFG as a
// single C translation unit with one function per merged block, a
// dispatch table for indirect jumps, and an rv_execute_from entry
// point the runtime resolves via dlsym (spec §7).
type Backend struct{}

// New constructs the C backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "c" }

func blockFuncName(pc uint64) string { return fmt.Sprintf("rv_block_%x", pc) }

func hotRegSlots(hotRegs []uint8) map[uint8]int {
	m := make(map[uint8]int, len(hotRegs))
	for i, r := range hotRegs {
		m[r] = i
	}
	return m
}

// EmitModule renders the complete translation unit. Block bodies are
// rendered concurrently via emit.EmitBlocksParallel; everything else
// (header, dispatch table, entry point) is cheap enough to stay
// sequential.
func (b *Backend) EmitModule(cfg *cfgbuild.CFG, meta emit.ModuleMeta) (string, error) {
	texts, _, err := emit.EmitBlocksParallel(context.Background(), cfg, meta, 0, b.emitBlock)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(header(meta))
	out.WriteString(prototypes(cfg, meta))
	for _, t := range texts {
		out.WriteString(t)
	}
	out.WriteString(dispatchTable(cfg, meta))
	out.WriteString(entryPoint(cfg, meta))
	return out.String(), nil
}

func header(meta emit.ModuleMeta) string {
	var b strings.Builder
	b.WriteString("#include <stdint.h>\n")
	b.WriteString("#include \"rv_runtime.h\"\n\n")
	fmt.Fprintf(&b, "// tracer=%s instret_mode=%d\n", meta.Tracer, meta.Instret)
	fmt.Fprintf(&b, "// htif tohost=%#x fromhost=%#x\n", htif.TohostAddr, htif.FromhostAddr)
	for i, r := range meta.HotRegs {
		fmt.Fprintf(&b, "// hot register slot %d <- x%d\n", i, r)
	}
	b.WriteString("\n")
	return b.String()
}

// prototypes forward-declares every block function and rv_dispatch
// before any block body is emitted: block functions tail-call each
// other and rv_dispatch in arbitrary order (a block near the top of
// the file may jump to one defined near the bottom), and C requires a
// visible declaration before first use.
func prototypes(cfg *cfgbuild.CFG, meta emit.ModuleMeta) string {
	var b strings.Builder
	for _, start := range cfg.SortedBlockStarts() {
		fmt.Fprintf(&b, "%s;\n", blockFuncSignature(blockFuncName(start), meta.HotRegs))
	}
	fmt.Fprintf(&b, "%s;\n\n", dispatchSignature(meta.HotRegs))
	return b.String()
}

// blockFuncSignature returns the hot-register-aware function
// signature. Hot registers are threaded by value across block calls so
// the host compiler can keep them in machine registers instead of
// reloading from MachineState at every block boundary (spec §7 "hot
// register" parameter passing); every block function returns a
// uint64_t that is always 0ULL, and rv_execute_from passes it through:
// the exit code, trap flag and message live in MachineState.
func blockFuncSignature(name string, hotRegs []uint8) string {
	params := []string{"rv_state_t *st"}
	for i := range hotRegs {
		params = append(params, fmt.Sprintf("%s hot%d", cIntType, i))
	}
	return fmt.Sprintf("static %s %s(%s)", cIntType, name, strings.Join(params, ", "))
}

func hotArgsList(hotRegs []uint8) string {
	if len(hotRegs) == 0 {
		return ""
	}
	parts := make([]string, len(hotRegs))
	for i := range hotRegs {
		parts[i] = fmt.Sprintf("hot%d", i)
	}
	return ", " + strings.Join(parts, ", ")
}

// writeBackHotRegs flushes every promoted hot register's current value
// into MachineState, used just before a block exits the guest program
// (TermExit) or traps, since nothing will tail-call forward to carry
// the value further.
func writeBackHotRegs(hotRegs []uint8, indent string) string {
	var b strings.Builder
	for i, r := range hotRegs {
		fmt.Fprintf(&b, "%sst->x[%d] = hot%d;\n", indent, r, i)
	}
	return b.String()
}

func (b *Backend) emitBlock(start uint64, blk *ir.BlockIR, meta emit.ModuleMeta) (string, error) {
	hotRegs := hotRegSlots(meta.HotRegs)
	var out strings.Builder

	fmt.Fprintf(&out, "%s {\n", blockFuncSignature(blockFuncName(start), meta.HotRegs))

	if meta.Instret == emit.InstretCount || meta.Instret == emit.InstretPerInstruction {
		fmt.Fprintf(&out, "  st->instret += %dULL;\n", len(blk.Instructions))
	}
	if meta.Tracer != emit.TracerNone {
		fmt.Fprintf(&out, "  rv_trace_block(st, %#xULL);\n", start)
	}

	for _, instr := range blk.Instructions {
		for _, s := range instr.Statements {
			out.WriteString(stmtC(s, hotRegs, "  "))
		}
	}

	out.WriteString(terminatorC(blk.Terminator(), blk.EndPc(), hotRegs, meta))
	out.WriteString("}\n\n")
	return out.String(), nil
}

// terminatorC lowers a block's terminator to its C control transfer.
// fallthroughPC is the address just past the block's last instruction
// (blk.EndPc()): the CFG builder leaves TermFall's own Target field
// zeroed since a fallthrough edge is implicit in instruction layout,
// and a branch's not-taken edge is always exactly this same address.
// Static successors are rendered as direct tail calls ("return
// f(...)"), which every mainstream C compiler turns into a jump at
// -O2; only a genuinely dynamic jump goes through the dispatch table.
func terminatorC(t ir.Terminator, fallthroughPC uint64, hotRegs map[uint8]int, meta emit.ModuleMeta) string {
	var b strings.Builder
	switch t.Kind {
	case ir.TermFall:
		fmt.Fprintf(&b, "  return %s(st%s);\n", blockFuncName(fallthroughPC), hotArgsList(meta.HotRegs))
	case ir.TermJump:
		fmt.Fprintf(&b, "  return %s(st%s);\n", blockFuncName(t.Target), hotArgsList(meta.HotRegs))
	case ir.TermBranch:
		fmt.Fprintf(&b, "  if (%s) {\n", exprC(t.Cond, hotRegs))
		fmt.Fprintf(&b, "    return %s(st%s);\n", blockFuncName(t.Target), hotArgsList(meta.HotRegs))
		b.WriteString("  }\n")
		fmt.Fprintf(&b, "  return %s(st%s);\n", blockFuncName(fallthroughPC), hotArgsList(meta.HotRegs))
	case ir.TermJumpDyn:
		fmt.Fprintf(&b, "  return rv_dispatch(st, %s%s);\n", exprC(t.Addr, hotRegs), hotArgsList(meta.HotRegs))
	case ir.TermExit:
		fmt.Fprintf(&b, "  st->has_exited = 1;\n  st->exit_code = (int64_t)(%s);\n", exprC(t.Code, hotRegs))
		b.WriteString(writeBackHotRegs(meta.HotRegs, "  "))
		b.WriteString("  return 0ULL;\n")
	case ir.TermTrap:
		fmt.Fprintf(&b, "  rv_trap(st, %q);\n", t.Message)
		b.WriteString(writeBackHotRegs(meta.HotRegs, "  "))
		b.WriteString("  return 0ULL;\n")
	}
	return b.String()
}

// dispatchSignature returns the hot-register-aware signature of
// rv_dispatch, the function dispatchTable renders to resolve
// indirect-jump targets to block functions through one dense
// (addr-base)>>1 table (spec §7, grounded on
// original_source/crates/rvr-emit/src/c/header/dispatch.rs).
func dispatchSignature(hotRegs []uint8) string {
	params := []string{"rv_state_t *st", cIntType + " addr"}
	for i := range hotRegs {
		params = append(params, fmt.Sprintf("%s hot%d", cIntType, i))
	}
	return fmt.Sprintf("static %s rv_dispatch(%s)", cIntType, strings.Join(params, ", "))
}

// dispatchUnmappedName is the trap stub filling every dense-table slot
// that isn't a real block start (spec §4.E: the table must fully cover
// its address range, not just the known targets).
const dispatchUnmappedName = "rv_dispatch_unmapped"

func dispatchTable(cfg *cfgbuild.CFG, meta emit.ModuleMeta) string {
	table := emit.BuildDispatchTable(cfg)
	var b strings.Builder

	if len(table.Targets) == 0 {
		fmt.Fprintf(&b, "%s {\n", dispatchSignature(meta.HotRegs))
		b.WriteString("  rv_trap(st, \"no indirect jump targets in this module\");\n  return 0ULL;\n}\n\n")
		return b.String()
	}

	fmt.Fprintf(&b, "typedef %s (*rv_block_fn_t)(rv_state_t *%s);\n", cIntType, hotParamTypes(meta.HotRegs))

	fmt.Fprintf(&b, "%s {\n", blockFuncSignature(dispatchUnmappedName, meta.HotRegs))
	b.WriteString("  rv_trap(st, \"indirect jump to an address with no known block\");\n  return 0ULL;\n")
	b.WriteString("}\n\n")

	known := make(map[uint64]bool, len(table.Targets))
	for _, t := range table.Targets {
		known[t] = true
	}

	b.WriteString("static rv_block_fn_t rv_dispatch_table[] = {\n")
	for slot := uint64(0); slot < table.NumSlots; slot++ {
		addr := table.Base + slot*2
		if known[addr] {
			fmt.Fprintf(&b, "  %s,\n", blockFuncName(addr))
		} else {
			fmt.Fprintf(&b, "  %s,\n", dispatchUnmappedName)
		}
	}
	b.WriteString("};\n\n")

	top := table.Base + (table.NumSlots-1)*2
	fmt.Fprintf(&b, "%s {\n", dispatchSignature(meta.HotRegs))
	fmt.Fprintf(&b, "  if (addr & 1ULL) { rv_trap(st, \"indirect jump to a misaligned address\"); return 0ULL; }\n")
	fmt.Fprintf(&b, "  if (addr < %#xULL || addr > %#xULL) { rv_trap(st, \"indirect jump outside dispatch range\"); return 0ULL; }\n", table.Base, top)
	fmt.Fprintf(&b, "  %s idx = (addr - %#xULL) >> 1;\n", cIntType, table.Base)
	fmt.Fprintf(&b, "  return rv_dispatch_table[idx](st%s);\n", hotArgsList(meta.HotRegs))
	b.WriteString("}\n\n")
	return b.String()
}

func hotParamTypes(hotRegs []uint8) string {
	var b strings.Builder
	for range hotRegs {
		b.WriteString(", " + cIntType)
	}
	return b.String()
}

// entryPoint renders rv_execute_from, the single symbol the runtime
// resolves via purego/dlsym to cross into generated code (spec §9
// "narrowest waist" ABI boundary). It loads promoted hot registers
// from MachineState once, tail-calls into the block graph, and is
// re-entered fresh on every guest dispatch (interrupt delivery,
// single-stepping) since has_exited is reset by the runtime.
func entryPoint(cfg *cfgbuild.CFG, meta emit.ModuleMeta) string {
	var b strings.Builder
	b.WriteString(cIntType + " rv_execute_from(rv_state_t *st, " + cIntType + " pc) {\n")
	for i, r := range meta.HotRegs {
		fmt.Fprintf(&b, "  %s hot%d = st->x[%d];\n", cIntType, i, r)
	}
	b.WriteString("  switch (pc) {\n")
	for _, start := range cfg.SortedBlockStarts() {
		fmt.Fprintf(&b, "    case %#xULL: return %s(st%s);\n", start, blockFuncName(start), hotArgsList(meta.HotRegs))
	}
	b.WriteString("    default: rv_trap(st, \"entry pc is not a known block start\"); return 0ULL;\n")
	b.WriteString("  }\n}\n")
	return b.String()
}
