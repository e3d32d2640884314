package state

import (
	"path/filepath"
	"testing"
)

func TestResetClearsRegistersAndStatus(t *testing.T) {
	var s MachineState
	s.X[5] = 42
	s.Pc = 0x1000
	s.HasExited = 1
	s.ExitCode = 7
	s.Reset()
	if s.X[5] != 0 || s.Pc != 0 || s.HasExited != 0 || s.ExitCode != 0 {
		t.Fatalf("expected Reset to zero register/status fields, got %+v", s)
	}
}

func TestTrapMessageStringStopsAtNUL(t *testing.T) {
	var s MachineState
	copy(s.TrapMessage[:], "illegal instruction\x00garbage")
	if got := s.TrapMessageString(); got != "illegal instruction" {
		t.Fatalf("got %q", got)
	}
}

func TestCaptureAndRestoreRoundTrip(t *testing.T) {
	var s MachineState
	s.X[1] = 0xdead
	s.Pc = 0x2000
	s.Instret = 99
	s.HasExited = 1
	s.ExitCode = 3
	mem := []byte{1, 2, 3, 4}

	snap := Capture(&s, mem)

	var restored MachineState
	restoredMem := make([]byte, len(mem))
	Restore(&restored, restoredMem, snap)

	if restored.X[1] != 0xdead || restored.Pc != 0x2000 || restored.Instret != 99 {
		t.Fatalf("register/pc/instret mismatch after restore: %+v", restored)
	}
	if restored.ExitCode != 3 || restored.HasExited == 0 {
		t.Fatalf("exit status mismatch after restore: %+v", restored)
	}
	for i, b := range mem {
		if restoredMem[i] != b {
			t.Fatalf("memory mismatch at %d: got %d want %d", i, restoredMem[i], b)
		}
	}
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	snap := Snapshot{Pc: 0x3000, Instret: 5, HasExited: true, Memory: []byte{9, 8, 7}}
	snap.X[2] = 0xbeef

	path := filepath.Join(t.TempDir(), "snap.gob")
	if err := SaveSnapshot(path, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Pc != snap.Pc || loaded.X[2] != snap.X[2] || len(loaded.Memory) != 3 {
		t.Fatalf("round trip mismatch: got %+v", loaded)
	}
}
