package elfimage

import "encoding/binary"

// Header is the subset of the ELF file header the recompiler cares
// about, decoded for either 32- or 64-bit classes (spec §3 "ELF import
// contract"), grounded on original_source/crates/rvr-elf/src/header.rs's
// ElfHeader shape.
type Header struct {
	Class      uint8
	Data       uint8
	OsAbi      uint8
	Type       uint16
	Machine    uint16
	Entry      uint64
	Phoff      uint64
	Shoff      uint64
	Flags      uint32
	Phentsize  uint16
	Phnum      uint16
	Shentsize  uint16
	Shnum      uint16
	Shstrndx   uint16
}

// ProgramHeader is one PT_* entry, decoded for either class.
type ProgramHeader struct {
	Type   uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	Filesz uint64
	Memsz  uint64
	Flags  uint32
	Align  uint64
}

func (p ProgramHeader) loadable() bool { return p.Type == progHeaderLoad }
func (p ProgramHeader) executable() bool { return p.Flags&pfExecute != 0 }

// Symbol is one named symbol table entry, of any symbol type.
type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
	Info  uint8
	Shndx uint16
}

func (s Symbol) isFunc() bool { return s.Info&stTypeMask == stFunc }

const (
	ehdrSize32 = 52
	ehdrSize64 = 64
	phdrSize32 = 32
	phdrSize64 = 56
)

func parseHeader(data []byte, class uint8) (Header, error) {
	min := ehdrSize32
	if class == classELF64 {
		min = ehdrSize64
	}
	if len(data) < min {
		return Header{}, errTooSmall
	}
	h := Header{
		Class: class,
		Data:  data[5],
		OsAbi: data[7],
	}
	if class == classELF32 {
		h.Type = binary.LittleEndian.Uint16(data[16:18])
		h.Machine = binary.LittleEndian.Uint16(data[18:20])
		h.Entry = uint64(binary.LittleEndian.Uint32(data[24:28]))
		h.Phoff = uint64(binary.LittleEndian.Uint32(data[28:32]))
		h.Shoff = uint64(binary.LittleEndian.Uint32(data[32:36]))
		h.Flags = binary.LittleEndian.Uint32(data[36:40])
		h.Phentsize = binary.LittleEndian.Uint16(data[42:44])
		h.Phnum = binary.LittleEndian.Uint16(data[44:46])
		h.Shentsize = binary.LittleEndian.Uint16(data[46:48])
		h.Shnum = binary.LittleEndian.Uint16(data[48:50])
		h.Shstrndx = binary.LittleEndian.Uint16(data[50:52])
		return h, nil
	}
	h.Type = binary.LittleEndian.Uint16(data[16:18])
	h.Machine = binary.LittleEndian.Uint16(data[18:20])
	h.Entry = binary.LittleEndian.Uint64(data[24:32])
	h.Phoff = binary.LittleEndian.Uint64(data[32:40])
	h.Shoff = binary.LittleEndian.Uint64(data[40:48])
	h.Flags = binary.LittleEndian.Uint32(data[48:52])
	h.Phentsize = binary.LittleEndian.Uint16(data[54:56])
	h.Phnum = binary.LittleEndian.Uint16(data[56:58])
	h.Shentsize = binary.LittleEndian.Uint16(data[58:60])
	h.Shnum = binary.LittleEndian.Uint16(data[60:62])
	h.Shstrndx = binary.LittleEndian.Uint16(data[62:64])
	return h, nil
}

// sectionHeader is a raw section header entry, only the fields needed
// to locate .symtab/.strtab.
type sectionHeader struct {
	Name      uint32
	Type      uint32
	Offset    uint64
	Size      uint64
	Link      uint32
	Entsize   uint64
}

const (
	shtSymtab = 2
	shtStrtab = 3
)

func parseSectionHeaders(data []byte, h Header) ([]sectionHeader, error) {
	size := int(h.Shentsize)
	if size == 0 || h.Shoff == 0 {
		return nil, nil
	}
	out := make([]sectionHeader, 0, h.Shnum)
	for i := 0; i < int(h.Shnum); i++ {
		off := int(h.Shoff) + i*size
		if off < 0 || off+size > len(data) {
			return nil, errSectionOutOfBounds
		}
		rec := data[off : off+size]
		var sh sectionHeader
		if h.Class == classELF32 {
			sh = sectionHeader{
				Name:    binary.LittleEndian.Uint32(rec[0:4]),
				Type:    binary.LittleEndian.Uint32(rec[4:8]),
				Offset:  uint64(binary.LittleEndian.Uint32(rec[16:20])),
				Size:    uint64(binary.LittleEndian.Uint32(rec[20:24])),
				Link:    binary.LittleEndian.Uint32(rec[24:28]),
				Entsize: uint64(binary.LittleEndian.Uint32(rec[36:40])),
			}
		} else {
			sh = sectionHeader{
				Name:    binary.LittleEndian.Uint32(rec[0:4]),
				Type:    binary.LittleEndian.Uint32(rec[4:8]),
				Offset:  binary.LittleEndian.Uint64(rec[24:32]),
				Size:    binary.LittleEndian.Uint64(rec[32:40]),
				Link:    binary.LittleEndian.Uint32(rec[40:44]),
				Entsize: binary.LittleEndian.Uint64(rec[56:64]),
			}
		}
		out = append(out, sh)
	}
	return out, nil
}

func cString(data []byte, off uint32) string {
	if int(off) >= len(data) {
		return ""
	}
	end := int(off)
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[off:end])
}

func parseProgramHeaders(data []byte, h Header) ([]ProgramHeader, error) {
	size := int(h.Phentsize)
	if size == 0 {
		return nil, nil
	}
	out := make([]ProgramHeader, 0, h.Phnum)
	for i := 0; i < int(h.Phnum); i++ {
		off := int(h.Phoff) + i*size
		if off < 0 || off+size > len(data) {
			return nil, errProgramOutOfBounds
		}
		rec := data[off : off+size]
		var ph ProgramHeader
		if h.Class == classELF32 {
			ph = ProgramHeader{
				Type:   binary.LittleEndian.Uint32(rec[0:4]),
				Offset: uint64(binary.LittleEndian.Uint32(rec[4:8])),
				VAddr:  uint64(binary.LittleEndian.Uint32(rec[8:12])),
				PAddr:  uint64(binary.LittleEndian.Uint32(rec[12:16])),
				Filesz: uint64(binary.LittleEndian.Uint32(rec[16:20])),
				Memsz:  uint64(binary.LittleEndian.Uint32(rec[20:24])),
				Flags:  binary.LittleEndian.Uint32(rec[24:28]),
				Align:  uint64(binary.LittleEndian.Uint32(rec[28:32])),
			}
		} else {
			ph = ProgramHeader{
				Type:   binary.LittleEndian.Uint32(rec[0:4]),
				Flags:  binary.LittleEndian.Uint32(rec[4:8]),
				Offset: binary.LittleEndian.Uint64(rec[8:16]),
				VAddr:  binary.LittleEndian.Uint64(rec[16:24]),
				PAddr:  binary.LittleEndian.Uint64(rec[24:32]),
				Filesz: binary.LittleEndian.Uint64(rec[32:40]),
				Memsz:  binary.LittleEndian.Uint64(rec[40:48]),
				Align:  binary.LittleEndian.Uint64(rec[48:56]),
			}
		}
		out = append(out, ph)
	}
	return out, nil
}
