package elfimage

import (
	"encoding/binary"
	"testing"

	"github.com/rvrecompiler/rvr/internal/rvrerr"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

// buildMinimalELF64 assembles a tiny, valid little-endian ELF64
// executable for RISC-V with one PT_LOAD segment and no sections,
// exercising Parse without any external fixture.
func buildMinimalELF64(entry, vaddr uint64, code []byte) []byte {
	const ehdrSize = 64
	const phdrSize = 56
	codeOff := uint64(ehdrSize + phdrSize)

	buf := make([]byte, codeOff+uint64(len(code)))
	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = classELF64
	buf[5] = dataLSB
	buf[6] = 1 // EI_VERSION

	binary.LittleEndian.PutUint16(buf[16:18], typeExec)
	binary.LittleEndian.PutUint16(buf[18:20], machineRISCV)
	binary.LittleEndian.PutUint64(buf[24:32], entry)
	binary.LittleEndian.PutUint64(buf[32:40], ehdrSize) // phoff
	binary.LittleEndian.PutUint16(buf[54:56], phdrSize) // phentsize
	binary.LittleEndian.PutUint16(buf[56:58], 1)        // phnum

	ph := buf[ehdrSize : ehdrSize+phdrSize]
	binary.LittleEndian.PutUint32(ph[0:4], progHeaderLoad)
	binary.LittleEndian.PutUint32(ph[4:8], pfExecute|pfRead)
	binary.LittleEndian.PutUint64(ph[8:16], codeOff)          // offset
	binary.LittleEndian.PutUint64(ph[16:24], vaddr)           // vaddr
	binary.LittleEndian.PutUint64(ph[24:32], vaddr)           // paddr
	binary.LittleEndian.PutUint64(ph[32:40], uint64(len(code))) // filesz
	binary.LittleEndian.PutUint64(ph[40:48], uint64(len(code))) // memsz

	copy(buf[codeOff:], code)
	return buf
}

func TestParseValidImage(t *testing.T) {
	data := buildMinimalELF64(0x1000, 0x1000, []byte{1, 2, 3, 4})
	img, err := Parse(data, xlen.RV64, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if img.Entry != 0x1000 {
		t.Fatalf("expected entry 0x1000, got %#x", img.Entry)
	}
	if len(img.Segments) != 1 || img.Segments[0].VAddr != 0x1000 {
		t.Fatalf("expected one segment at 0x1000, got %+v", img.Segments)
	}
	if len(img.Segments[0].Data) != 4 {
		t.Fatalf("expected 4 bytes of segment data, got %d", len(img.Segments[0].Data))
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildMinimalELF64(0x1000, 0x1000, []byte{0})
	data[0] = 0
	_, err := Parse(data, xlen.RV64, 0)
	if !rvrerr.Is(err, rvrerr.ElfRejected) {
		t.Fatalf("expected ElfRejected, got %v", err)
	}
}

func TestParseRejectsXlenMismatch(t *testing.T) {
	data := buildMinimalELF64(0x1000, 0x1000, []byte{0})
	_, err := Parse(data, xlen.RV32, 0)
	if !rvrerr.Is(err, rvrerr.ElfRejected) {
		t.Fatalf("expected ElfRejected for xlen mismatch, got %v", err)
	}
}

func TestParseRejectsTooSmall(t *testing.T) {
	_, err := Parse([]byte{0x7f, 'E', 'L', 'F'}, xlen.RV64, 0)
	if !rvrerr.Is(err, rvrerr.ElfRejected) {
		t.Fatalf("expected ElfRejected for truncated header, got %v", err)
	}
}

func TestLoadableSegmentsRejectsTooMany(t *testing.T) {
	phdrs := []ProgramHeader{
		{Type: progHeaderLoad, VAddr: 0x1000, Memsz: 4, Filesz: 4, Offset: 0},
		{Type: progHeaderLoad, VAddr: 0x2000, Memsz: 4, Filesz: 4, Offset: 4},
	}
	data := make([]byte, 8)
	if _, err := loadableSegments(data, phdrs, 1); err != errTooManySegments {
		t.Fatalf("expected errTooManySegments, got %v", err)
	}
}

func TestLoadableSegmentsRejectsOverlap(t *testing.T) {
	phdrs := []ProgramHeader{
		{Type: progHeaderLoad, VAddr: 0x1000, Memsz: 0x1000, Filesz: 4, Offset: 0},
		{Type: progHeaderLoad, VAddr: 0x1800, Memsz: 4, Filesz: 4, Offset: 4},
	}
	data := make([]byte, 8)
	if _, err := loadableSegments(data, phdrs, 8); err != errOverlappingSegments {
		t.Fatalf("expected errOverlappingSegments, got %v", err)
	}
}

func TestLoadableSegmentsRejectsNoneLoadable(t *testing.T) {
	data := make([]byte, 8)
	if _, err := loadableSegments(data, nil, 8); err != errNoLoadableSegments {
		t.Fatalf("expected errNoLoadableSegments, got %v", err)
	}
}

func TestLookupMissingSymbolReturnsFalse(t *testing.T) {
	data := buildMinimalELF64(0x1000, 0x1000, []byte{1, 2, 3, 4})
	img, err := Parse(data, xlen.RV64, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := img.Lookup("__stack_top"); ok {
		t.Fatalf("expected no symbols in a minimal image")
	}
}
