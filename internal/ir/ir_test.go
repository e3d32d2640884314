package ir

import (
	"testing"

	"github.com/rvrecompiler/rvr/internal/xlen"
)

func TestBuilderElidesX0Write(t *testing.T) {
	b := NewBuilder(xlen.RV64, 0x1000, 4, SourceLoc{Mnemonic: "add"})
	b.WriteReg(0, Const(42))
	instr := b.BuildFall()
	if len(instr.Statements) != 0 {
		t.Fatalf("expected write to x0 to be elided, got %+v", instr.Statements)
	}
}

func TestBuilderReadX0IsConstZero(t *testing.T) {
	b := NewBuilder(xlen.RV64, 0, 4, SourceLoc{})
	e := b.ReadReg(0)
	if e.Kind != ExprConst || e.Const != 0 {
		t.Fatalf("expected Const(0) for x0 read, got %+v", e)
	}
}

func TestBuilderWriteRegNonzero(t *testing.T) {
	b := NewBuilder(xlen.RV64, 0x2000, 4, SourceLoc{Mnemonic: "addi"})
	b.WriteReg(5, Bin(BinaryAdd, Reg(6), Const(1)))
	instr := b.BuildFall()
	if len(instr.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(instr.Statements))
	}
	st := instr.Statements[0]
	if st.Kind != StmtWrite || st.Space != SpaceReg || st.Addr.Const != 5 {
		t.Fatalf("unexpected statement: %+v", st)
	}
}

func TestBuilderBuildBranch(t *testing.T) {
	b := NewBuilder(xlen.RV64, 0x3000, 4, SourceLoc{Mnemonic: "beq"})
	instr := b.BuildBranch(Bin(BinaryEq, Reg(1), Reg(2)), 0x3100, HintNotTaken)
	if instr.Terminator.Kind != TermBranch {
		t.Fatalf("expected TermBranch, got %v", instr.Terminator.Kind)
	}
	if instr.Terminator.Target != 0x3100 {
		t.Fatalf("target = %#x, want 0x3100", instr.Terminator.Target)
	}
}

func TestBlockIREndPcAndLen(t *testing.T) {
	blk := NewBlockIR(0x1000)
	blk.Push(InstrIR{Pc: 0x1000, Size: 4, Terminator: Fall()})
	blk.Push(InstrIR{Pc: 0x1004, Size: 2, Terminator: Jump(0x2000)})
	if blk.Len() != 2 {
		t.Fatalf("len = %d, want 2", blk.Len())
	}
	if blk.EndPc() != 0x1006 {
		t.Fatalf("end pc = %#x, want 0x1006", blk.EndPc())
	}
	if blk.Terminator().Kind != TermJump {
		t.Fatalf("expected block terminator to be the last instruction's, got %v", blk.Terminator().Kind)
	}
}

func TestBlockIREmpty(t *testing.T) {
	blk := NewBlockIR(0x4000)
	if !blk.IsEmpty() {
		t.Fatal("expected new block to be empty")
	}
	if blk.EndPc() != 0x4000 {
		t.Fatalf("end pc of empty block = %#x, want start pc", blk.EndPc())
	}
}

func TestJumpDynResolved(t *testing.T) {
	term := JumpDyn(Reg(5), []uint64{0x1000, 0x1100})
	if !term.IsDynamic() {
		t.Fatal("expected JumpDyn to report dynamic")
	}
	if len(term.Resolved) != 2 {
		t.Fatalf("resolved = %v, want 2 entries", term.Resolved)
	}
}
