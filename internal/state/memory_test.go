//go:build unix

package state

import "testing"

func TestGuardedMemoryCopySegmentAndClear(t *testing.T) {
	m, err := NewGuardedMemory(0x1000, 8192)
	if err != nil {
		t.Fatalf("NewGuardedMemory: %v", err)
	}
	defer m.Close()

	if err := m.CopySegment(0x1000, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("CopySegment: %v", err)
	}
	if got := m.Bytes()[:4]; got[0] != 1 || got[3] != 4 {
		t.Fatalf("expected copied bytes, got %v", got)
	}

	m.Clear()
	for i, b := range m.Bytes()[:4] {
		if b != 0 {
			t.Fatalf("expected Clear to zero byte %d, got %d", i, b)
		}
	}
}

func TestGuardedMemoryCopySegmentRejectsOutOfRange(t *testing.T) {
	m, err := NewGuardedMemory(0x1000, 4096)
	if err != nil {
		t.Fatalf("NewGuardedMemory: %v", err)
	}
	defer m.Close()

	if err := m.CopySegment(0x500, []byte{1}); err == nil {
		t.Fatalf("expected an error for a vaddr below the memory base")
	}
	if err := m.CopySegment(0x1000, make([]byte, 100000)); err == nil {
		t.Fatalf("expected an error for a segment overrunning the region")
	}
}
