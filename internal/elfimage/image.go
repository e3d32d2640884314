package elfimage

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/rvrconfig"
	"github.com/rvrecompiler/rvr/internal/rvrerr"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

// sentinel causes, named after original_source/crates/rvr-elf/src/lib.rs's
// ElfError variants; Parse wraps each in rvrerr.ElfRejected before
// returning it.
var (
	errTooSmall            = errors.New("elf data too small")
	errInvalidMagic        = errors.New("invalid elf magic")
	errNotLittleEndian     = errors.New("only little-endian elf supported")
	errUnsupportedClass    = errors.New("unsupported elf class")
	errXlenMismatch        = errors.New("elf xlen mismatch")
	errNotExecutable       = errors.New("elf is not an executable for the target machine")
	errProgramOutOfBounds  = errors.New("program header out of bounds")
	errSegmentBeyondFile   = errors.New("segment extends beyond file")
	errVirtualAddrOverflow = errors.New("virtual address overflow")
	errNoLoadableSegments  = errors.New("no loadable segments found")
	errTooManySegments     = errors.New("too many loadable segments")
	errOverlappingSegments = errors.New("overlapping virtual address ranges")
	errSectionOutOfBounds  = errors.New("section header out of bounds")
)

// Image is a parsed, validated RISC-V ELF binary: just enough to seed
// the CFG builder and runtime (spec §3/§6 "ELF import contract").
type Image struct {
	Header   Header
	Segments []cfgbuild.Segment
	Symbols  []Symbol
	Entry    uint64
}

// Parse validates and extracts an Image from raw ELF bytes for the
// given register width, bounding the loadable segment count at
// maxSegments (spec §9, resolved to rvrconfig.DefaultMaxSegments unless
// the caller configures otherwise).
func Parse(data []byte, width xlen.Width, maxSegments int) (*Image, error) {
	if maxSegments <= 0 {
		maxSegments = rvrconfig.DefaultMaxSegments
	}
	if len(data) < 20 {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errTooSmall, "elf header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != elfMagic {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errInvalidMagic, "elf magic")
	}
	class := data[4]
	if class != classELF32 && class != classELF64 {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errUnsupportedClass, "elf class")
	}
	if data[5] != dataLSB {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errNotLittleEndian, "elf endianness")
	}
	wantClass := uint8(classELF64)
	if width == xlen.RV32 {
		wantClass = classELF32
	}
	if class != wantClass {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errXlenMismatch, "elf xlen")
	}

	h, err := parseHeader(data, class)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, err, "elf header")
	}
	if h.Machine != machineRISCV {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errNotExecutable, "elf machine")
	}
	if h.Type != typeExec && h.Type != typeDyn {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, errNotExecutable, "elf type")
	}

	phdrs, err := parseProgramHeaders(data, h)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, err, "program headers")
	}

	segs, err := loadableSegments(data, phdrs, maxSegments)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, err, "loadable segments")
	}

	shdrs, err := parseSectionHeaders(data, h)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.ElfRejected, err, "section headers")
	}

	return &Image{
		Header:   h,
		Segments: segs,
		Symbols:  parseSymbols(data, h, shdrs),
		Entry:    h.Entry,
	}, nil
}

// Lookup returns the value of a named symbol, used by the runtime to
// seed sp/gp from __stack_top and __global_pointer$ when present
// (spec §7 "per-run lifecycle").
func (img *Image) Lookup(name string) (uint64, bool) {
	for _, s := range img.Symbols {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

func loadableSegments(data []byte, phdrs []ProgramHeader, maxSegments int) ([]cfgbuild.Segment, error) {
	var segs []cfgbuild.Segment
	for _, ph := range phdrs {
		if !ph.loadable() || ph.Memsz == 0 {
			continue
		}
		if ph.VAddr+ph.Memsz < ph.VAddr {
			return nil, errVirtualAddrOverflow
		}
		end := ph.Offset + ph.Filesz
		if end < ph.Offset || end > uint64(len(data)) {
			return nil, errSegmentBeyondFile
		}
		buf := make([]byte, ph.Memsz)
		copy(buf, data[ph.Offset:end])
		segs = append(segs, cfgbuild.Segment{VAddr: ph.VAddr, Data: buf})
	}
	if len(segs) == 0 {
		return nil, errNoLoadableSegments
	}
	if len(segs) > maxSegments {
		return nil, errTooManySegments
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].VAddr < segs[j].VAddr })
	for i := 1; i < len(segs); i++ {
		prevEnd := segs[i-1].VAddr + uint64(len(segs[i-1].Data))
		if segs[i].VAddr < prevEnd {
			return nil, errOverlappingSegments
		}
	}
	return segs, nil
}

// parseSymbols extracts .symtab/.strtab, best-effort: a missing or
// malformed symbol table never fails Parse since only the entry point
// and loadable segments are load-bearing for execution. Only
// __stack_top/__global_pointer$ lookups (spec §7) depend on it.
func parseSymbols(data []byte, h Header, shdrs []sectionHeader) []Symbol {
	var symtab, strtab *sectionHeader
	for i := range shdrs {
		switch shdrs[i].Type {
		case shtSymtab:
			symtab = &shdrs[i]
		}
	}
	if symtab == nil || int(symtab.Link) >= len(shdrs) {
		return nil
	}
	strtab = &shdrs[symtab.Link]

	entsize := int(symtab.Entsize)
	if entsize == 0 {
		entsize = 16
		if h.Class == classELF64 {
			entsize = 24
		}
	}
	if symtab.Offset+symtab.Size > uint64(len(data)) || strtab.Offset+strtab.Size > uint64(len(data)) {
		return nil
	}
	strs := data[strtab.Offset : strtab.Offset+strtab.Size]

	var out []Symbol
	count := int(symtab.Size) / entsize
	for i := 0; i < count; i++ {
		off := int(symtab.Offset) + i*entsize
		rec := data[off : off+entsize]
		var sym Symbol
		if h.Class == classELF32 {
			sym.Name = cString(strs, binary.LittleEndian.Uint32(rec[0:4]))
			sym.Value = uint64(binary.LittleEndian.Uint32(rec[4:8]))
			sym.Size = uint64(binary.LittleEndian.Uint32(rec[8:12]))
			sym.Info = rec[12]
			sym.Shndx = binary.LittleEndian.Uint16(rec[14:16])
		} else {
			sym.Name = cString(strs, binary.LittleEndian.Uint32(rec[0:4]))
			sym.Info = rec[4]
			sym.Shndx = binary.LittleEndian.Uint16(rec[6:8])
			sym.Value = binary.LittleEndian.Uint64(rec[8:16])
			sym.Size = binary.LittleEndian.Uint64(rec[16:24])
		}
		if sym.Name != "" {
			out = append(out, sym)
		}
	}
	return out
}
