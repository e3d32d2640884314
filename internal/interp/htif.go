package interp

import (
	"os"

	"github.com/rvrecompiler/rvr/internal/htif"
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/state"
)

// handleMemWrite intercepts guest stores to the HTIF tohost sentinel
// (spec §4.E/§6 scenario S2) instead of writing them through as plain
// memory: an odd value is an exit request (bit 0 set, payload >>1 is
// the exit code); any other nonzero value is a guest pointer to a
// four-word {syscall, fd, buf, len} magic_mem block, mirroring the
// riscv-tests HTIF proxy-syscall convention this package's C sibling
// (internal/emit/c/runtime.go's rv_handle_tohost_write) implements the
// same way. Only the write(2) subset is forwarded, to the real host
// stdout; every other store goes through untouched.
func (in *Interp) handleMemWrite(st *state.MachineState, addr, value uint64, w ir.MemWidth) error {
	if addr != htif.TohostAddr {
		return in.store(addr, value, w)
	}
	if htif.IsExit(value) {
		st.HasExited = 1
		st.ExitCode = htif.ExitCode(value)
		return nil
	}
	if value == 0 {
		return nil
	}

	num := in.load(value, ir.Width8)
	fd := in.load(value+8, ir.Width8)
	buf := in.load(value+16, ir.Width8)
	length := in.load(value+24, ir.Width8)

	result := ^uint64(0)
	if num == htif.SysWrite && fd == htif.StdoutFd {
		off := buf - in.mem.Base()
		data := in.mem.Bytes()
		if off+length <= uint64(len(data)) {
			os.Stdout.Write(data[off : off+length])
			result = length
		}
	}
	if err := in.store(value, result, ir.Width8); err != nil {
		return err
	}
	return in.store(htif.FromhostAddr, 1, ir.Width8)
}
