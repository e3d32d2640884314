// Package state owns the Go-visible mirror of rv_state_t (spec §7
// "MachineState"), the guarded guest memory region the runtime mmaps
// before every run, and a gob snapshot format for save/restore
// (grounded on the teacher's pkg/cpu.State for the fixed-layout,
// cheap-to-copy register struct and pkg/result.Checkpoint for the gob
// save/load shape).
package state

import (
	"encoding/gob"
	"os"
)

// NumRegs is the RV64I/RV32I integer register file size; embedded
// (E-variant) binaries only use the first 16.
const NumRegs = 32

// CsrCount sizes the CSR file at the full 12-bit address space, matching
// rv_runtime.h's rv_state_t.csr array.
const CsrCount = 4096

// TrapMessageCap bounds the C struct's fixed trap_message buffer.
const TrapMessageCap = 128

// MachineState is the Go-side mirror of the C rv_state_t a compiled
// module operates on directly; its field order and widths MUST match
// internal/emit/c.RuntimeHeader's struct layout byte for byte, since
// the runtime hands this struct's address across the cgo-free FFI
// boundary to rv_execute_from.
type MachineState struct {
	X              [NumRegs]uint64
	Pc             uint64
	Instret        uint64
	TargetInstret  uint64
	ExitCode       int64
	HasExited      int32
	Trapped        int32
	TrapMessage    [TrapMessageCap]byte
	Mem            uintptr
	MemBase        uint64
	MemSize        uint64
	Brk            uint64
	Csr            [CsrCount]uint64
}

// Reset clears everything except the register width the caller has
// already sized memory for, preparing the struct for a fresh run
// (spec §7 per-run lifecycle: "clears memory, copies loadable
// segments, resets state").
func (s *MachineState) Reset() {
	s.X = [NumRegs]uint64{}
	s.Pc = 0
	s.Instret = 0
	s.TargetInstret = 0
	s.ExitCode = 0
	s.HasExited = 0
	s.Trapped = 0
	s.TrapMessage = [TrapMessageCap]byte{}
	s.Brk = 0
	s.Csr = [CsrCount]uint64{}
}

// TrapMessageString decodes the NUL-terminated trap message the
// generated code wrote via rv_trap.
func (s *MachineState) TrapMessageString() string {
	n := 0
	for n < len(s.TrapMessage) && s.TrapMessage[n] != 0 {
		n++
	}
	return string(s.TrapMessage[:n])
}

// Snapshot is the serializable subset of a run: registers, pc, and
// exit status, excluding the raw memory pointer (which is only valid
// within the process that mapped it). Grounded on the teacher's
// pkg/result.Checkpoint gob save/load pattern, adapted from "resumable
// search progress" to "resumable/replayable guest run" (spec's
// SUPPLEMENTED FEATURES: GDB-style single-stepping and differential
// replay both want a cheap point-in-time capture).
type Snapshot struct {
	X         [NumRegs]uint64
	Pc        uint64
	Instret   uint64
	ExitCode  int64
	HasExited bool
	Memory    []byte // a copy of the guarded region at capture time
}

// Capture takes a Snapshot of the current MachineState plus a copy of
// its guest memory.
func Capture(s *MachineState, memory []byte) Snapshot {
	snap := Snapshot{
		X:         s.X,
		Pc:        s.Pc,
		Instret:   s.Instret,
		ExitCode:  s.ExitCode,
		HasExited: s.HasExited != 0,
	}
	if len(memory) > 0 {
		snap.Memory = make([]byte, len(memory))
		copy(snap.Memory, memory)
	}
	return snap
}

// Restore writes a Snapshot's registers/pc/exit status back into a
// MachineState and, when sized to match, its guest memory.
func Restore(s *MachineState, memory []byte, snap Snapshot) {
	s.X = snap.X
	s.Pc = snap.Pc
	s.Instret = snap.Instret
	s.ExitCode = snap.ExitCode
	if snap.HasExited {
		s.HasExited = 1
	} else {
		s.HasExited = 0
	}
	if len(memory) == len(snap.Memory) {
		copy(memory, snap.Memory)
	}
}

// SaveSnapshot gob-encodes a Snapshot to path.
func SaveSnapshot(path string, snap Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(snap)
}

// LoadSnapshot gob-decodes a Snapshot from path.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
