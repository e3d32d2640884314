package isa

import "github.com/rvrecompiler/rvr/internal/xlen"

// ExtensionDecoder is the contract a single RISC-V extension (I, M, A,
// C, Zicsr, Zifencei...) implements (spec §4.B). CompositeDecoder tries
// each registered ExtensionDecoder in order and returns the first match.
type ExtensionDecoder interface {
	// Name identifies the extension for logging/disassembly.
	Name() string

	// Decode16 attempts to decode a 16-bit compressed instruction.
	// Only the C extension implements this meaningfully; others return
	// (nil, false).
	Decode16(raw16 uint16, pc uint64, w xlen.Width) (*DecodedInstruction, bool)

	// Decode32 attempts to decode a 32-bit standard instruction.
	Decode32(raw32 uint32, pc uint64, w xlen.Width) (*DecodedInstruction, bool)

	// Disasm renders the canonical assembler text for a decoded
	// instruction produced by this extension.
	Disasm(instr *DecodedInstruction) string

	// OpInfo returns the static metadata for one of this extension's
	// opcodes.
	OpInfo(id OpId) (OpInfo, bool)
}

// CompositeDecoder holds an ordered list of ExtensionDecoders and
// dispatches decode requests to the first one that matches. Order
// matters: the C (compressed) decoder must precede the base decoders
// because compressed and standard encodings share low-bit patterns.
type CompositeDecoder struct {
	width    xlen.Width
	decoders []ExtensionDecoder
}

// NewCompositeDecoder builds a composite decoder for the given
// register width from an ordered list of extension decoders.
func NewCompositeDecoder(w xlen.Width, decoders ...ExtensionDecoder) *CompositeDecoder {
	return &CompositeDecoder{width: w, decoders: decoders}
}

// Standard returns the default decoder set: C, then I, M, A, Zicsr,
// Zifencei — compressed first per spec §4.B.
func Standard(w xlen.Width, embedded bool) *CompositeDecoder {
	return NewCompositeDecoder(w,
		NewCDecoder(),
		NewBaseDecoder(embedded),
		NewMDecoder(),
		NewADecoder(),
		NewZicsrDecoder(),
		NewZifenceiDecoder(),
	)
}

// isCompressed reports whether the low two bits of the first 16-bit
// word indicate a compressed (2-byte) instruction: anything other
// than 0b11 is compressed (spec §4.B "Size discrimination").
func isCompressed(firstHalfWord uint16) bool {
	return firstHalfWord&0x3 != 0x3
}

// Decode reads one instruction at pc out of bytes (which must have at
// least 2 bytes remaining; 4 if the instruction turns out standard).
// Illegal or truncated encodings return (nil, false); the caller (the
// CFG builder) turns that into an instruction with a Trap terminator.
func (c *CompositeDecoder) Decode(bytes []byte, pc uint64) (*DecodedInstruction, bool) {
	if len(bytes) < 2 {
		return nil, false
	}
	lo := uint16(bytes[0]) | uint16(bytes[1])<<8
	if isCompressed(lo) {
		for _, d := range c.decoders {
			if instr, ok := d.Decode16(lo, pc, c.width); ok {
				return instr, true
			}
		}
		return nil, false
	}
	if len(bytes) < 4 {
		return nil, false
	}
	raw32 := uint32(bytes[0]) | uint32(bytes[1])<<8 | uint32(bytes[2])<<16 | uint32(bytes[3])<<24
	for _, d := range c.decoders {
		if instr, ok := d.Decode32(raw32, pc, c.width); ok {
			return instr, true
		}
	}
	return nil, false
}

// Disasm finds the owning extension decoder for instr.OpId and asks it
// to render the canonical assembler text.
func (c *CompositeDecoder) Disasm(instr *DecodedInstruction) string {
	for _, d := range c.decoders {
		if _, ok := d.OpInfo(instr.OpId); ok {
			return d.Disasm(instr)
		}
	}
	return "???"
}

// OpInfo looks up static metadata for an opcode across all registered
// extensions.
func (c *CompositeDecoder) OpInfo(id OpId) (OpInfo, bool) {
	for _, d := range c.decoders {
		if info, ok := d.OpInfo(id); ok {
			return info, true
		}
	}
	return OpInfo{}, false
}
