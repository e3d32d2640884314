package cfgbuild

import (
	"encoding/binary"
	"testing"

	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/lift"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

func enc(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func putWord(buf []byte, off int, w uint32) {
	binary.LittleEndian.PutUint32(buf[off:], w)
}

// buildStraightLine assembles: addi x1,x0,1; addi x2,x0,2; ecall
func buildStraightLine() []byte {
	buf := make([]byte, 12)
	putWord(buf, 0, encI(0x13, 0, 1, 0, 1))
	putWord(buf, 4, encI(0x13, 0, 2, 0, 2))
	putWord(buf, 8, encI(0x73, 0, 0, 0, 0)) // ecall
	return buf
}

func newBuilder(code []byte, base uint64) *Builder {
	decoder := isa.Standard(xlen.RV64, false)
	lifter := lift.New(xlen.RV64, nil, false)
	return NewBuilder(decoder, lifter, []Segment{{VAddr: base, Data: code}})
}

func TestStraightLineSingleBlock(t *testing.T) {
	code := buildStraightLine()
	b := newBuilder(code, 0x1000)
	cfg, err := b.Build(0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Blocks) != 1 {
		t.Fatalf("expected 1 block (absorbed straight line), got %d: %v", len(cfg.Blocks), cfg.SortedBlockStarts())
	}
	blk := cfg.Blocks[0x1000]
	if blk.Len() != 3 {
		t.Fatalf("expected 3 instructions in the merged block, got %d", blk.Len())
	}
}

// buildBranch assembles:
//
//	0x1000: beq x0,x0,+8   (taken -> 0x1008)
//	0x1004: addi x1,x0,99  (fallthrough / not-taken target)
//	0x1008: ecall          (branch target)
func buildBranch() []byte {
	buf := make([]byte, 12)
	beq := func(rs1, rs2 uint32, immBytes int32) uint32 {
		imm11 := uint32((immBytes >> 11) & 0x1)
		imm12 := uint32((immBytes >> 12) & 0x1)
		imm10_5 := uint32((immBytes >> 5) & 0x3F)
		imm4_1 := uint32((immBytes >> 1) & 0xF)
		return imm12<<31 | imm10_5<<25 | rs2<<20 | rs1<<15 | 0<<12 | imm4_1<<8 | imm11<<7 | 0x63
	}
	putWord(buf, 0, beq(0, 0, 8))
	putWord(buf, 4, encI(0x13, 0, 1, 0, 99))
	putWord(buf, 8, encI(0x73, 0, 0, 0, 0))
	return buf
}

func TestBranchCreatesThreeLeaders(t *testing.T) {
	code := buildBranch()
	b := newBuilder(code, 0x1000)
	cfg, err := b.Build(0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.Blocks[0x1000]; !ok {
		t.Fatal("expected a block at the entry/branch instruction")
	}
	if _, ok := cfg.Blocks[0x1004]; !ok {
		t.Fatal("expected a block at the fallthrough (not-taken) target")
	}
	if _, ok := cfg.Blocks[0x1008]; !ok {
		t.Fatal("expected a block at the branch (taken) target")
	}
	succs := cfg.Successors[0x1000]
	if len(succs) != 2 {
		t.Fatalf("expected 2 successors from the branch block, got %v", succs)
	}
}

// buildJumpThenExit assembles: jal x0,+8 (plain jump); ecall (sole
// predecessor, so absorption must fold it into the jump's block).
func buildJumpThenExit() []byte {
	buf := make([]byte, 12)
	encJ := func(rd uint32, immBytes int32) uint32 {
		imm20 := uint32((immBytes >> 20) & 0x1)
		imm19_12 := uint32((immBytes >> 12) & 0xFF)
		imm11 := uint32((immBytes >> 11) & 0x1)
		imm10_1 := uint32((immBytes >> 1) & 0x3FF)
		return imm20<<31 | imm10_1<<21 | imm11<<20 | imm19_12<<12 | rd<<7 | 0x6F
	}
	putWord(buf, 0, encJ(0, 8))
	putWord(buf, 8, encI(0x73, 0, 0, 0, 0))
	return buf
}

func TestResolveThroughAbsorption(t *testing.T) {
	code := buildJumpThenExit()
	b := newBuilder(code, 0x1000)
	cfg, err := b.Build(0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Blocks) != 1 {
		t.Fatalf("expected the jump target to be absorbed into one block, got %v", cfg.SortedBlockStarts())
	}
	resolved, ok := cfg.Resolve(0x1008)
	if !ok || resolved != 0x1000 {
		t.Fatalf("expected 0x1008 to resolve to the merged block 0x1000, got %#x ok=%v", resolved, ok)
	}
}
