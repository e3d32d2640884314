package xlen

import "testing"

func TestRV32(t *testing.T) {
	if RV32.ShiftMask() != 0x1F {
		t.Errorf("RV32 shift mask = %#x, want 0x1F", RV32.ShiftMask())
	}
	if RV32.RegBytes() != 4 {
		t.Errorf("RV32 reg bytes = %d, want 4", RV32.RegBytes())
	}
	if got := RV32.SignExtend32(0xFFFFFFFF); got != 0xFFFFFFFF {
		t.Errorf("RV32 sign_extend_32(0xFFFFFFFF) = %#x, want 0xFFFFFFFF", got)
	}
}

func TestRV64(t *testing.T) {
	if RV64.ShiftMask() != 0x3F {
		t.Errorf("RV64 shift mask = %#x, want 0x3F", RV64.ShiftMask())
	}
	if RV64.RegBytes() != 8 {
		t.Errorf("RV64 reg bytes = %d, want 8", RV64.RegBytes())
	}
	if got := RV64.SignExtend32(0xFFFFFFFF); got != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("RV64 sign_extend_32(0xFFFFFFFF) = %#x, want all-ones", got)
	}
	if got := RV64.SignExtend32(0x7FFFFFFF); got != 0x7FFFFFFF {
		t.Errorf("RV64 sign_extend_32(0x7FFFFFFF) = %#x, want 0x7FFFFFFF", got)
	}
}

func TestNumRegs(t *testing.T) {
	if NumRegs(true) != 16 {
		t.Errorf("NumRegs(embedded) = %d, want 16", NumRegs(true))
	}
	if NumRegs(false) != 32 {
		t.Errorf("NumRegs(full) = %d, want 32", NumRegs(false))
	}
}
