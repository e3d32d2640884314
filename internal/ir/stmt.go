package ir

// Space names the destination of a Write statement (spec §5
// "Statement"): a register, a memory address, or a CSR.
type Space uint8

const (
	SpaceReg Space = iota
	SpaceMem
	SpaceCsr
)

// StmtKind discriminates the Statement tagged union.
type StmtKind uint8

const (
	// StmtWrite stores Value into Space at Addr (register index, memory
	// address, or CSR address, depending on Space).
	StmtWrite StmtKind = iota
	// StmtIf runs Then if Cond is nonzero, Else otherwise (Else may be nil).
	StmtIf
	// StmtExternCall invokes a named host function for effects the IR
	// can't express directly (syscalls, FENCE.I, CSR side effects).
	StmtExternCall
)

// Stmt is a single side-effecting operation within a basic block (spec
// §5 "Statement").
type Stmt struct {
	Kind StmtKind

	// StmtWrite fields.
	Space Space
	Addr  *Expr // register index as a constant Expr, memory addr, or CSR addr
	Value *Expr
	Width MemWidth // meaningful only when Space == SpaceMem

	// StmtIf fields.
	Cond *Expr
	Then []Stmt
	Else []Stmt

	// StmtExternCall fields.
	FnName  string
	Args    []*Expr
	ResultReg uint8 // register to receive the call's return value, if any
	HasResult bool
}

// WriteReg builds a register-write statement. Writes to x0 should be
// elided by the caller (spec §5 invariant I-X0); the builder does this
// automatically.
func WriteReg(reg uint8, value *Expr) Stmt {
	return Stmt{Kind: StmtWrite, Space: SpaceReg, Addr: Const(uint64(reg)), Value: value}
}

// WriteMem builds a memory-write statement.
func WriteMem(addr, value *Expr, w MemWidth) Stmt {
	return Stmt{Kind: StmtWrite, Space: SpaceMem, Addr: addr, Value: value, Width: w}
}

// WriteCsr builds a CSR-write statement.
func WriteCsr(csr uint16, value *Expr) Stmt {
	return Stmt{Kind: StmtWrite, Space: SpaceCsr, Addr: Const(uint64(csr)), Value: value}
}

// IfThen builds a conditional statement with no else branch.
func IfThen(cond *Expr, then []Stmt) Stmt {
	return Stmt{Kind: StmtIf, Cond: cond, Then: then}
}

// IfThenElse builds a conditional statement with both branches.
func IfThenElse(cond *Expr, then, els []Stmt) Stmt {
	return Stmt{Kind: StmtIf, Cond: cond, Then: then, Else: els}
}

// ExternCall builds a call statement with no result register (used for
// pure side effects such as FENCE.I or a syscall shim that writes its
// result back into machine state itself).
func ExternCall(fnName string, args ...*Expr) Stmt {
	return Stmt{Kind: StmtExternCall, FnName: fnName, Args: args}
}

// ExternCallToReg builds a call statement whose return value is
// written into a destination register.
func ExternCallToReg(fnName string, dest uint8, args ...*Expr) Stmt {
	return Stmt{Kind: StmtExternCall, FnName: fnName, Args: args, ResultReg: dest, HasResult: true}
}
