package lift

import (
	"testing"

	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

func TestLiftAddi(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0x1000, Size: 4, OpId: isa.OpAddi,
		Args: isa.Args{Format: isa.FormatI, Rd: 5, Rs1: 6, Imm: -1},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got.Statements))
	}
	if got.Terminator.Kind != ir.TermFall {
		t.Fatalf("expected fallthrough, got %v", got.Terminator.Kind)
	}
}

func TestLiftEcallDefaultExit(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{Pc: 0x2000, Size: 4, OpId: isa.OpEcall, Args: isa.Args{Format: isa.FormatNone}}
	got := l.Lift(instr)
	if got.Terminator.Kind != ir.TermExit {
		t.Fatalf("expected exit terminator by default, got %v", got.Terminator.Kind)
	}
}

func TestLiftEcallOverrideIsExternCall(t *testing.T) {
	l := New(xlen.RV64, isa.LinuxSyscallRegistry(), false)
	instr := &isa.DecodedInstruction{Pc: 0x2000, Size: 4, OpId: isa.OpEcall, Args: isa.Args{Format: isa.FormatNone}}
	got := l.Lift(instr)
	if got.Terminator.Kind != ir.TermFall {
		t.Fatalf("expected fallthrough under syscall override, got %v", got.Terminator.Kind)
	}
	if len(got.Statements) != 1 || got.Statements[0].Kind != ir.StmtExternCall {
		t.Fatalf("expected one extern call statement, got %+v", got.Statements)
	}
	if reg := got.Statements[0].Args[0].Reg; reg != 17 {
		t.Fatalf("expected syscall number to come from a7 (x17) on a standard build, got x%d", reg)
	}
}

func TestLiftEcallEmbeddedReadsSyscallNumberFromT0(t *testing.T) {
	l := New(xlen.RV64, isa.LinuxSyscallRegistry(), true)
	instr := &isa.DecodedInstruction{Pc: 0x2000, Size: 4, OpId: isa.OpEcall, Args: isa.Args{Format: isa.FormatNone}}
	got := l.Lift(instr)
	if len(got.Statements) != 1 || got.Statements[0].Kind != ir.StmtExternCall {
		t.Fatalf("expected one extern call statement, got %+v", got.Statements)
	}
	if reg := got.Statements[0].Args[0].Reg; reg != 5 {
		t.Fatalf("expected syscall number to come from t0 (x5) on an embedded build, got x%d", reg)
	}
}

func TestLiftDivByZero(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpDiv,
		Args: isa.Args{Format: isa.FormatR, Rd: 1, Rs1: 2, Rs2: 3},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got.Statements))
	}
	val := got.Statements[0].Value
	if val.Kind != ir.ExprSelect {
		t.Fatalf("expected div-by-zero to lower to a select, got %v", val.Kind)
	}
}

func TestLiftX0WritesElided(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpAdd,
		Args: isa.Args{Format: isa.FormatR, Rd: 0, Rs1: 1, Rs2: 2},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 0 {
		t.Fatalf("expected write to x0 to be elided, got %+v", got.Statements)
	}
}

func TestLiftAtomicAddRMW(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpAmoaddW,
		Args: isa.Args{Format: isa.FormatR, Rd: 5, Rs1: 6, Rs2: 7},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 2 {
		t.Fatalf("expected a store then a register write, got %d statements", len(got.Statements))
	}
	if got.Statements[0].Kind != ir.StmtWrite || got.Statements[0].Space != ir.SpaceMem {
		t.Fatalf("expected first statement to be the memory read-modify-write, got %+v", got.Statements[0])
	}
}

func TestLiftCompressedAddiExpandsLikeBase(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0x1000, Size: 2, OpId: isa.OpCAddi,
		Args: isa.Args{Format: isa.FormatCI, Rd: 5, Rs1: 5, Imm: 3},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 1 || got.Statements[0].Space != ir.SpaceReg {
		t.Fatalf("expected a single register write, got %+v", got.Statements)
	}
}

func TestLiftFenceIIsNoOp(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{Pc: 0, Size: 4, OpId: isa.NewOpId(isa.ExtZifencei, 0), Args: isa.Args{Format: isa.FormatNone}}
	got := l.Lift(instr)
	if len(got.Statements) != 0 || got.Terminator.Kind != ir.TermFall {
		t.Fatalf("expected a pure no-op fallthrough, got %+v", got)
	}
}

func TestLiftCsrrsSuppressesWriteOnX0(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpCsrrs,
		Args: isa.Args{Format: isa.FormatI, Rd: 5, Rs1: 0, Csr: isa.CsrMhartID},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 1 {
		t.Fatalf("expected only the rd write (csr write suppressed), got %+v", got.Statements)
	}
}

func TestLiftCsrrwInstretReadsLiveCounter(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpCsrrw,
		Args: isa.Args{Format: isa.FormatI, Rd: 5, Rs1: 6, Csr: isa.CsrInstret},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 1 {
		t.Fatalf("expected only the rd write (csr write-back suppressed for instret), got %+v", got.Statements)
	}
	if got.Statements[0].Value.Kind != ir.ExprInstret {
		t.Fatalf("expected rdinstret to read the live counter, got %v", got.Statements[0].Value.Kind)
	}
}

func TestLiftCsrrwOrdinaryCsrStillWritesBack(t *testing.T) {
	l := New(xlen.RV64, nil, false)
	instr := &isa.DecodedInstruction{
		Pc: 0, Size: 4, OpId: isa.OpCsrrw,
		Args: isa.Args{Format: isa.FormatI, Rd: 5, Rs1: 6, Csr: isa.CsrMhartID},
	}
	got := l.Lift(instr)
	if len(got.Statements) != 2 {
		t.Fatalf("expected the rd write and the csr write-back, got %+v", got.Statements)
	}
	if got.Statements[0].Value.Kind != ir.ExprCsr {
		t.Fatalf("expected an ordinary csr read, got %v", got.Statements[0].Value.Kind)
	}
}
