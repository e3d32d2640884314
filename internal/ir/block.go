package ir

// BlockIR is a maximal straight-line run of InstrIR values sharing a
// single entry point and a single exit (spec §6 "basic block"). The
// CFG builder is the only code allowed to construct one with more than
// one instruction; the lifter itself only ever produces one-
// instruction InstrIR values.
type BlockIR struct {
	StartPc      uint64
	Instructions []InstrIR
}

// NewBlockIR starts an empty block at startPc.
func NewBlockIR(startPc uint64) *BlockIR {
	return &BlockIR{StartPc: startPc}
}

// Push appends an instruction to the block.
func (b *BlockIR) Push(instr InstrIR) {
	b.Instructions = append(b.Instructions, instr)
}

// Len returns the number of instructions absorbed into this block.
func (b *BlockIR) Len() int { return len(b.Instructions) }

// IsEmpty reports whether the block has no instructions yet.
func (b *BlockIR) IsEmpty() bool { return len(b.Instructions) == 0 }

// EndPc returns the address one past the last instruction's bytes,
// i.e. the PC execution would fall through to.
func (b *BlockIR) EndPc() uint64 {
	if b.IsEmpty() {
		return b.StartPc
	}
	last := b.Instructions[len(b.Instructions)-1]
	return last.Pc + uint64(last.Size)
}

// Terminator returns the terminator of the block's final instruction,
// which is the block's own terminator (spec §6 "a block ends exactly
// where its last instruction's terminator says it does").
func (b *BlockIR) Terminator() Terminator {
	if b.IsEmpty() {
		return Fall()
	}
	return b.Instructions[len(b.Instructions)-1].Terminator
}

// SizeBytes returns the total encoded size of every instruction in the block.
func (b *BlockIR) SizeBytes() uint64 {
	return b.EndPc() - b.StartPc
}
