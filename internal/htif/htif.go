// Package htif defines the Host-Target Interface sentinel addresses
// and syscall numbers the emitted code and runtime agree on for guest
// exit and I/O (spec §4.C "ECALL"/"HTIF", grounded on
// original_source/crates/rvr-emit/src/htif.rs).
package htif

const (
	// TohostAddr is the guest-physical address the emitted store
	// interception watches for exit/syscall requests.
	TohostAddr uint64 = 0x8000_1000
	// FromhostAddr is the companion address the runtime writes
	// syscall replies back to.
	FromhostAddr uint64 = 0x8000_1008

	// SysWrite is the HTIF-subset syscall number for a write(2)-style
	// console write request.
	SysWrite uint64 = 64
	// StdoutFd is the file descriptor HTIF console writes target.
	StdoutFd uint64 = 1
)

// IsExit reports whether a tohost store value encodes a guest exit
// request: bit 0 set, payload (value>>1) is the exit code.
func IsExit(value uint64) bool { return value&1 != 0 }

// ExitCode extracts the exit code from an exit-encoded tohost value.
func ExitCode(value uint64) int64 { return int64(value >> 1) }
