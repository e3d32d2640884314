package c

import (
	"strings"
	"testing"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/emit"
	"github.com/rvrecompiler/rvr/internal/ir"
)

func reg(r uint8) *ir.Expr { return ir.Const(uint64(r)) }

func TestExprCConst(t *testing.T) {
	got := exprC(ir.Const(0x2a), nil)
	if got != "0x2aULL" {
		t.Fatalf("got %q", got)
	}
}

func TestExprCRegPromotedToHot(t *testing.T) {
	hot := map[uint8]int{5: 0}
	got := exprC(ir.Reg(5), hot)
	if got != "hot0" {
		t.Fatalf("expected hot register reference, got %q", got)
	}
}

func TestExprCRegFallsBackToState(t *testing.T) {
	got := exprC(ir.Reg(6), nil)
	if got != "st->x[6]" {
		t.Fatalf("got %q", got)
	}
}

func TestExprCRegZeroIsLiteralZero(t *testing.T) {
	got := exprC(ir.Reg(0), nil)
	if got != "0ULL" {
		t.Fatalf("expected x0 to render as a literal, got %q", got)
	}
}

func TestExprCInstretReadsLiveCounter(t *testing.T) {
	got := exprC(ir.Instret(), nil)
	if got != "st->instret" {
		t.Fatalf("expected rdinstret to read the live counter field, got %q", got)
	}
}

func TestExprCDivSignedUsesHelper(t *testing.T) {
	got := exprC(ir.Bin(ir.BinaryDivSigned, ir.Reg(1), ir.Reg(2)), nil)
	if !strings.Contains(got, "rv_divs(") {
		t.Fatalf("expected signed division to call rv_divs, got %q", got)
	}
}

func TestWriteStmtCElidesX0(t *testing.T) {
	s := ir.WriteReg(0, ir.Const(1))
	if got := writeStmtC(s, nil, "  "); got != "" {
		t.Fatalf("expected x0 write to render as nothing, got %q", got)
	}
}

func TestWriteStmtCUsesHotSlot(t *testing.T) {
	s := ir.WriteReg(5, ir.Const(7))
	got := writeStmtC(s, map[uint8]int{5: 2}, "  ")
	if !strings.Contains(got, "hot2 =") {
		t.Fatalf("expected write through hot slot, got %q", got)
	}
}

func TestExternCallCVoidResult(t *testing.T) {
	s := ir.ExternCall("rv_fence_i")
	got := externCallC(s, nil, "  ")
	if !strings.Contains(got, "rv_fence_i(st)") {
		t.Fatalf("expected a call passing st, got %q", got)
	}
}

// twoBlockCFG builds a minimal CFG: 0x1000 writes x5 and falls through
// to 0x1004, which exits with code 0.
func twoBlockCFG() *cfgbuild.CFG {
	first := ir.NewBlockIR(0x1000)
	first.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Statements: []ir.Stmt{ir.WriteReg(5, ir.Const(42))},
		Terminator: ir.Fall(),
	})
	second := ir.NewBlockIR(0x1004)
	second.Push(ir.InstrIR{
		Pc: 0x1004, Size: 4,
		Terminator: ir.Exit(ir.Const(0)),
	})
	return &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: first, 0x1004: second},
		Successors:       map[uint64][]uint64{0x1000: {0x1004}},
		AbsorbedToMerged: map[uint64]uint64{},
	}
}

func TestEmitModuleRendersBothBlocksAndEntryPoint(t *testing.T) {
	cfg := twoBlockCFG()
	meta := emit.ModuleMeta{HotRegs: []uint8{5}}
	out, err := New().EmitModule(cfg, meta)
	if err != nil {
		t.Fatalf("EmitModule returned error: %v", err)
	}
	for _, want := range []string{
		"rv_block_1000",
		"rv_block_1004",
		"rv_execute_from",
		"hot0 = 0x2aULL",
		"return rv_block_1004(st, hot0);",
		"st->has_exited = 1",
		"st->x[5] = hot0;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestEmitModuleNoHotRegsOmitsParams(t *testing.T) {
	cfg := twoBlockCFG()
	out, err := New().EmitModule(cfg, emit.ModuleMeta{})
	if err != nil {
		t.Fatalf("EmitModule returned error: %v", err)
	}
	if strings.Contains(out, "hot0") {
		t.Fatalf("expected no hot-register parameters when none are promoted, got:\n%s", out)
	}
	if !strings.Contains(out, "st->x[5] = 0x2aULL;") {
		t.Fatalf("expected a direct MachineState write when x5 isn't promoted, got:\n%s", out)
	}
}

func TestBackendName(t *testing.T) {
	if New().Name() != "c" {
		t.Fatalf("expected backend name \"c\"")
	}
}

// dynJumpCFG mirrors a real JALR-through-return: 0x1000 dynamically
// jumps through x1 (as every real lift path emits, with no Resolved
// hint), landing on 0x1006, a 2-byte- but not 4-byte-aligned block
// start -- the case a stale 4-byte-stride dispatch table would
// misindex.
func dynJumpCFG() *cfgbuild.CFG {
	entry := ir.NewBlockIR(0x1000)
	entry.Push(ir.InstrIR{Pc: 0x1000, Size: 4, Terminator: ir.JumpDyn(ir.Reg(1), nil)})
	landing := ir.NewBlockIR(0x1006)
	landing.Push(ir.InstrIR{Pc: 0x1006, Size: 2, Terminator: ir.Exit(ir.Const(1))})
	return &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: entry, 0x1006: landing},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
}

func TestEmitModuleBuildsDispatchTableForDynamicJump(t *testing.T) {
	out, err := New().EmitModule(dynJumpCFG(), emit.ModuleMeta{})
	if err != nil {
		t.Fatalf("EmitModule returned error: %v", err)
	}
	for _, want := range []string{
		"rv_dispatch_table[]",
		"rv_block_1000,",
		"rv_block_1006,",
		dispatchUnmappedName + ",",
		"idx = (addr - 0x1000ULL) >> 1;",
		"return rv_dispatch(st, st->x[1]);",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestEmitModuleNoBlockStartsTrapsInDispatch(t *testing.T) {
	empty := &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
	out, err := New().EmitModule(empty, emit.ModuleMeta{})
	if err != nil {
		t.Fatalf("EmitModule returned error: %v", err)
	}
	if !strings.Contains(out, "no indirect jump targets in this module") {
		t.Fatalf("expected a trapping rv_dispatch with no known targets, got:\n%s", out)
	}
}

func TestRuntimeHeaderDeclaresStateAndHelpers(t *testing.T) {
	h := RuntimeHeader(32)
	for _, want := range []string{
		"uint64_t x[32];",
		"rv_state_t",
		"rv_execute_from(rv_state_t *st, uint64_t pc);",
		"rv_load32",
		"rv_store64",
		"rv_divs",
		"#define RV_HTIF_TOHOST_ADDR 0x80001000ULL",
		"#define RV_HTIF_FROMHOST_ADDR 0x80001008ULL",
		"rv_handle_tohost_write",
	} {
		if !strings.Contains(h, want) {
			t.Fatalf("expected runtime header to contain %q", want)
		}
	}
}

func TestWriteStmtCInterceptsHtifTohostStore(t *testing.T) {
	s := ir.WriteMem(ir.Const(0x80001000), ir.Const(1), ir.Width8)
	got := writeStmtC(s, nil, "  ")
	if !strings.Contains(got, "rv_mem_addr == RV_HTIF_TOHOST_ADDR") {
		t.Fatalf("expected every memory store to check the tohost sentinel, got %q", got)
	}
	if !strings.Contains(got, "rv_handle_tohost_write(st, (uint64_t)(0x1ULL))") {
		t.Fatalf("expected the tohost branch to forward to rv_handle_tohost_write, got %q", got)
	}
	if !strings.Contains(got, "rv_store64(st, rv_mem_addr, 0x1ULL)") {
		t.Fatalf("expected the non-tohost branch to still store normally, got %q", got)
	}
}
