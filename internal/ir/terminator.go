package ir

// TermKind discriminates the Terminator tagged union (spec §5
// "Terminator" / §6 CFG edges).
type TermKind uint8

const (
	// TermFall falls through to the next sequential instruction; the
	// CFG builder keeps it as a Fall, and a backend continues at the
	// address just past the instruction (the block's EndPc).
	TermFall TermKind = iota
	// TermJump is an unconditional static jump to Target.
	TermJump
	// TermJumpDyn is an indirect jump through Addr. Resolved is an
	// optional hint of statically-known successor PCs (no lift path
	// populates it today); the dispatch table a backend builds for this
	// terminator is NOT limited to Resolved -- it covers every address
	// the CFG builder can resolve a jump into, i.e. every block start
	// (spec §6 "dynamic jump resolution", see emit.BuildDispatchTable).
	TermJumpDyn
	// TermBranch conditionally jumps to Target (if Cond is nonzero) or
	// falls through otherwise; Hint records a static prediction.
	TermBranch
	// TermExit ends execution with Code (spec §4.C "ECALL default lift").
	TermExit
	// TermTrap ends execution abnormally, e.g. on an illegal encoding
	// or EBREAK.
	TermTrap
)

// BranchHint records a static branch-direction prediction, used by the
// emitter to lay out the hot path straight-line (spec §6).
type BranchHint uint8

const (
	HintNone BranchHint = iota
	HintTaken
	HintNotTaken
)

// Terminator ends a basic block (spec §5). Exactly the fields relevant
// to Kind are meaningful.
type Terminator struct {
	Kind TermKind

	Target   uint64  // TermJump, TermBranch
	Addr     *Expr   // TermJumpDyn
	Resolved []uint64 // TermJumpDyn: statically known successor PCs

	Cond *Expr // TermBranch
	Hint BranchHint

	Code *Expr // TermExit

	Message string // TermTrap
}

// Fall builds a fallthrough terminator.
func Fall() Terminator { return Terminator{Kind: TermFall} }

// Jump builds an unconditional jump terminator.
func Jump(target uint64) Terminator { return Terminator{Kind: TermJump, Target: target} }

// JumpDyn builds an indirect jump terminator.
func JumpDyn(addr *Expr, resolved []uint64) Terminator {
	return Terminator{Kind: TermJumpDyn, Addr: addr, Resolved: resolved}
}

// Branch builds a conditional branch terminator.
func Branch(cond *Expr, target uint64, hint BranchHint) Terminator {
	return Terminator{Kind: TermBranch, Cond: cond, Target: target, Hint: hint}
}

// Exit builds an exit terminator.
func Exit(code *Expr) Terminator { return Terminator{Kind: TermExit, Code: code} }

// Trap builds a trap terminator.
func Trap(message string) Terminator { return Terminator{Kind: TermTrap, Message: message} }

// IsDynamic reports whether the terminator's successor set can only be
// known at emit time via a dispatch table (spec §6).
func (t Terminator) IsDynamic() bool { return t.Kind == TermJumpDyn }

// StaticSuccessors returns the PCs this terminator can statically jump
// to, not including fallthrough (resolved by the caller from block
// layout) or dynamic targets (see IsDynamic/Resolved).
func (t Terminator) StaticSuccessors() []uint64 {
	switch t.Kind {
	case TermJump:
		return []uint64{t.Target}
	case TermBranch:
		return []uint64{t.Target}
	default:
		return nil
	}
}
