package isa

// Immediate and field extraction helpers shared by every extension's
// decode32 implementation. Field layouts follow the RISC-V
// unprivileged ISA manual exactly.

// DecodeIImm decodes an I-type immediate: bits [31:20], sign-extended.
func DecodeIImm(instr uint32) int32 {
	return int32(instr) >> 20
}

// DecodeSImm decodes an S-type immediate: bits [31:25]|[11:7], sign-extended.
func DecodeSImm(instr uint32) int32 {
	imm11_5 := (instr >> 25) & 0x7F
	imm4_0 := (instr >> 7) & 0x1F
	imm := (imm11_5 << 5) | imm4_0
	return (int32(imm) << 20) >> 20
}

// DecodeBImm decodes a B-type immediate: bits [31]|[7]|[30:25]|[11:8], <<1, sign-extended.
func DecodeBImm(instr uint32) int32 {
	imm12 := (instr >> 31) & 0x1
	imm11 := (instr >> 7) & 0x1
	imm10_5 := (instr >> 25) & 0x3F
	imm4_1 := (instr >> 8) & 0xF
	imm := (imm12 << 12) | (imm11 << 11) | (imm10_5 << 5) | (imm4_1 << 1)
	return (int32(imm) << 19) >> 19
}

// DecodeUImm decodes a U-type immediate: bits [31:12] << 12.
func DecodeUImm(instr uint32) int32 {
	return int32(instr & 0xFFFFF000)
}

// DecodeJImm decodes a J-type immediate: bits [31]|[19:12]|[20]|[30:21], <<1, sign-extended.
func DecodeJImm(instr uint32) int32 {
	imm20 := (instr >> 31) & 0x1
	imm19_12 := (instr >> 12) & 0xFF
	imm11 := (instr >> 20) & 0x1
	imm10_1 := (instr >> 21) & 0x3FF
	imm := (imm20 << 20) | (imm19_12 << 12) | (imm11 << 11) | (imm10_1 << 1)
	return (int32(imm) << 11) >> 11
}

// DecodeRd extracts rd: bits [11:7].
func DecodeRd(instr uint32) uint8 { return uint8((instr >> 7) & 0x1F) }

// DecodeRs1 extracts rs1: bits [19:15].
func DecodeRs1(instr uint32) uint8 { return uint8((instr >> 15) & 0x1F) }

// DecodeRs2 extracts rs2: bits [24:20].
func DecodeRs2(instr uint32) uint8 { return uint8((instr >> 20) & 0x1F) }

// DecodeFunct3 extracts funct3: bits [14:12].
func DecodeFunct3(instr uint32) uint8 { return uint8((instr >> 12) & 0x7) }

// DecodeFunct7 extracts funct7: bits [31:25].
func DecodeFunct7(instr uint32) uint8 { return uint8((instr >> 25) & 0x7F) }

// DecodeOpcode extracts the base opcode: bits [6:0].
func DecodeOpcode(instr uint32) uint8 { return uint8(instr & 0x7F) }

// SignExtend8 sign-extends an 8-bit value to int64.
func SignExtend8(val uint8) int64 { return int64(int8(val)) }

// SignExtend16 sign-extends a 16-bit value to int64.
func SignExtend16(val uint16) int64 { return int64(int16(val)) }

// SignExtend32 sign-extends a 32-bit value to int64.
func SignExtend32(val uint32) int64 { return int64(int32(val)) }
