// Package elfimage extracts just enough of a RISC-V ELF binary to feed
// the CFG builder: the entry point, loadable segments, and the symbol
// table, bounded and validated per spec §3/§6 "ELF import contract"
// (grounded on original_source/crates/rvr-elf, expressed in the
// encoding/binary style of other_examples' elf_complete.go.go).
package elfimage

const (
	elfMagic       = 0x464C457F // "\x7fELF" read little-endian as a u32
	classELF32     = 1
	classELF64     = 2
	dataLSB        = 1 // little-endian
	typeExec       = 2
	typeDyn        = 3
	machineRISCV   = 243
	progHeaderLoad = 1 // PT_LOAD

	pfExecute = 0x1
	pfWrite   = 0x2
	pfRead    = 0x4

	stTypeMask = 0xf
	stFunc     = 2
)
