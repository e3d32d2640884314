//go:build unix

package state

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pageSize is assumed rather than queried: every Linux target this
// runtime supports uses 4 KiB pages.
const pageSize = 4096

// GuardedMemory is the guest's flat address space: one mmap'd,
// page-aligned region flanked by PROT_NONE guard pages, so an
// out-of-bounds access from miscompiled or adversarial generated code
// faults instead of corrupting the host process (spec §7 "guarded
// memory region").
type GuardedMemory struct {
	region []byte // guard | usable | guard
	usable []byte
	base   uint64
}

// NewGuardedMemory mmaps a usable region of at least size bytes
// (rounded up to a page) at base, with one guard page on each side.
func NewGuardedMemory(base uint64, size uint64) (*GuardedMemory, error) {
	usableLen := int(roundUpPage(size))
	total := usableLen + 2*pageSize

	region, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap guarded memory: %w", err)
	}
	usable := region[pageSize : pageSize+usableLen]
	if err := unix.Mprotect(usable, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("mprotect usable region: %w", err)
	}
	return &GuardedMemory{region: region, usable: usable, base: base}, nil
}

// Bytes returns the usable guest memory slice.
func (m *GuardedMemory) Bytes() []byte { return m.usable }

// Base returns the guest virtual address the region's first byte
// corresponds to.
func (m *GuardedMemory) Base() uint64 { return m.base }

// Clear zeroes the usable region, done at the start of every run
// (spec §7 "clears memory").
func (m *GuardedMemory) Clear() {
	for i := range m.usable {
		m.usable[i] = 0
	}
}

// CopySegment writes segment data at its virtual address minus Base
// into the usable region, rejecting anything that would spill into a
// guard page.
func (m *GuardedMemory) CopySegment(vaddr uint64, data []byte) error {
	if vaddr < m.base {
		return fmt.Errorf("segment vaddr %#x below memory base %#x", vaddr, m.base)
	}
	off := vaddr - m.base
	if off+uint64(len(data)) > uint64(len(m.usable)) {
		return fmt.Errorf("segment at %#x (len %d) overruns guarded memory", vaddr, len(data))
	}
	copy(m.usable[off:], data)
	return nil
}

// Close unmaps the entire guarded region, guard pages included.
func (m *GuardedMemory) Close() error {
	return unix.Munmap(m.region)
}

func roundUpPage(n uint64) uint64 {
	return (n + pageSize - 1) &^ (pageSize - 1)
}
