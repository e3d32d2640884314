package interp

import (
	"io"
	"os"
	"testing"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/htif"
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/state"
)

type fakeMemory struct {
	base uint64
	data []byte
}

func (m *fakeMemory) Base() uint64  { return m.base }
func (m *fakeMemory) Bytes() []byte { return m.data }

// addAndExitCFG builds a two-block CFG: 0x1000 computes x3 = x1 + x2
// and falls through; 0x1004 exits with code x3.
func addAndExitCFG() *cfgbuild.CFG {
	first := ir.NewBlockIR(0x1000)
	first.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Statements: []ir.Stmt{ir.WriteReg(3, ir.Bin(ir.BinaryAdd, ir.Reg(1), ir.Reg(2)))},
		Terminator: ir.Fall(),
	})
	second := ir.NewBlockIR(0x1004)
	second.Push(ir.InstrIR{
		Pc: 0x1004, Size: 4,
		Terminator: ir.Exit(ir.Reg(3)),
	})
	return &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: first, 0x1004: second},
		Successors:       map[uint64][]uint64{0x1000: {0x1004}},
		AbsorbedToMerged: map[uint64]uint64{},
	}
}

func TestRunComputesAndExits(t *testing.T) {
	cfg := addAndExitCFG()
	mem := &fakeMemory{base: 0x2000, data: make([]byte, 16)}
	in := New(cfg, mem)

	var st state.MachineState
	st.X[1] = 3
	st.X[2] = 4

	if err := in.Run(&st, 0x1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.HasExited == 0 {
		t.Fatalf("expected guest to have exited")
	}
	if st.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", st.ExitCode)
	}
	if st.X[3] != 7 {
		t.Fatalf("expected x3 == 7, got %d", st.X[3])
	}
}

func TestRunBranchTakenAndNotTaken(t *testing.T) {
	first := ir.NewBlockIR(0x1000)
	first.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Terminator: ir.Branch(ir.Reg(1), 0x2000, ir.HintNone),
	})
	taken := ir.NewBlockIR(0x2000)
	taken.Push(ir.InstrIR{Pc: 0x2000, Size: 4, Terminator: ir.Exit(ir.Const(1))})
	notTaken := ir.NewBlockIR(0x1004)
	notTaken.Push(ir.InstrIR{Pc: 0x1004, Size: 4, Terminator: ir.Exit(ir.Const(2))})

	cfg := &cfgbuild.CFG{
		Blocks: map[uint64]*ir.BlockIR{0x1000: first, 0x2000: taken, 0x1004: notTaken},
		Successors: map[uint64][]uint64{
			0x1000: {0x2000, 0x1004},
		},
		AbsorbedToMerged: map[uint64]uint64{},
	}
	mem := &fakeMemory{base: 0, data: make([]byte, 0)}

	var takenSt state.MachineState
	takenSt.X[1] = 1
	if err := New(cfg, mem).Run(&takenSt, 0x1000); err != nil {
		t.Fatalf("Run (taken): %v", err)
	}
	if takenSt.ExitCode != 1 {
		t.Fatalf("expected taken branch to exit with code 1, got %d", takenSt.ExitCode)
	}

	var notTakenSt state.MachineState
	notTakenSt.X[1] = 0
	if err := New(cfg, mem).Run(&notTakenSt, 0x1000); err != nil {
		t.Fatalf("Run (not taken): %v", err)
	}
	if notTakenSt.ExitCode != 2 {
		t.Fatalf("expected not-taken branch to exit with code 2, got %d", notTakenSt.ExitCode)
	}
}

func TestRunMemoryLoadStore(t *testing.T) {
	blk := ir.NewBlockIR(0x1000)
	blk.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Statements: []ir.Stmt{ir.WriteMem(ir.Const(0x2000), ir.Const(0xabcd), ir.Width2)},
		Terminator: ir.Fall(),
	})
	blk.Push(ir.InstrIR{
		Pc: 0x1004, Size: 4,
		Statements: []ir.Stmt{ir.WriteReg(5, ir.Load(ir.Const(0x2000), ir.Width2))},
		Terminator: ir.Exit(ir.Reg(5)),
	})
	cfg := &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: blk},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
	mem := &fakeMemory{base: 0x2000, data: make([]byte, 16)}

	var st state.MachineState
	if err := New(cfg, mem).Run(&st, 0x1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.ExitCode != 0xabcd {
		t.Fatalf("expected round-tripped memory value 0xabcd, got %#x", st.ExitCode)
	}
}

func TestRunTrapSetsTrapMessage(t *testing.T) {
	blk := ir.NewBlockIR(0x1000)
	blk.Push(ir.InstrIR{Pc: 0x1000, Size: 4, Terminator: ir.Trap("illegal instruction")})
	cfg := &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: blk},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
	mem := &fakeMemory{base: 0, data: nil}

	var st state.MachineState
	err := New(cfg, mem).Run(&st, 0x1000)
	if err == nil {
		t.Fatalf("expected an error from a trapping run")
	}
	if st.TrapMessageString() != "illegal instruction" {
		t.Fatalf("got trap message %q", st.TrapMessageString())
	}
}

// TestRunHtifTohostStoreTriggersExit exercises the interpreter's side of
// scenario S2: a guest store of an odd value to the tohost sentinel is
// an exit request, not a memory write, and must be observed through
// MachineState the same way the C backend's rv_handle_tohost_write
// reports it.
func TestRunHtifTohostStoreTriggersExit(t *testing.T) {
	exitValue := uint64(7)<<1 | 1
	blk := ir.NewBlockIR(0x1000)
	blk.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Statements: []ir.Stmt{ir.WriteMem(ir.Const(htif.TohostAddr), ir.Const(exitValue), ir.Width8)},
		Terminator: ir.Fall(),
	})
	cfg := &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: blk},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}
	mem := &fakeMemory{base: 0x80000000, data: make([]byte, 0x2000)}

	var st state.MachineState
	if err := New(cfg, mem).Run(&st, 0x1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.HasExited == 0 {
		t.Fatalf("expected tohost exit store to set HasExited")
	}
	if st.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", st.ExitCode)
	}
}

// TestRunHtifSyscallWriteForwardsToStdout exercises the magic_mem
// proxy-syscall path: a non-exit tohost store is a pointer to a
// {syscall, fd, buf, len} block, and a write(2) to fd 1 must reach the
// real host stdout.
func TestRunHtifSyscallWriteForwardsToStdout(t *testing.T) {
	const base = 0x80000000
	mem := &fakeMemory{base: base, data: make([]byte, 0x2000)}

	const magicOff = 0x100
	const bufOff = 0x200
	msg := []byte("hi")
	copy(mem.data[bufOff:], msg)

	putU64 := func(off uint64, v uint64) {
		for i := 0; i < 8; i++ {
			mem.data[off+uint64(i)] = byte(v >> (8 * i))
		}
	}
	putU64(magicOff, htif.SysWrite)
	putU64(magicOff+8, htif.StdoutFd)
	putU64(magicOff+16, base+bufOff)
	putU64(magicOff+24, uint64(len(msg)))

	blk := ir.NewBlockIR(0x1000)
	blk.Push(ir.InstrIR{
		Pc: 0x1000, Size: 4,
		Statements: []ir.Stmt{ir.WriteMem(ir.Const(htif.TohostAddr), ir.Const(base+magicOff), ir.Width8)},
		Terminator: ir.Exit(ir.Const(0)),
	})
	cfg := &cfgbuild.CFG{
		Blocks:           map[uint64]*ir.BlockIR{0x1000: blk},
		Successors:       map[uint64][]uint64{},
		AbsorbedToMerged: map[uint64]uint64{},
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	var st state.MachineState
	runErr := New(cfg, mem).Run(&st, 0x1000)
	w.Close()
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	if string(out) != "hi" {
		t.Fatalf("expected forwarded write to reach stdout as %q, got %q", "hi", out)
	}
}
