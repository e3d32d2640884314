package main

import (
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/rvrconfig"
)

// syscallRegistry returns the ECALL override registry the lifter
// should use: the Linux syscall ABI override when the config asks for
// it, otherwise an empty registry, so ECALL keeps its default lift: an
// Exit with the code in a0 (spec §4.C "ECALL default lift").
func syscallRegistry(cfg rvrconfig.Config) *isa.Registry {
	if cfg.LinuxSyscalls {
		return isa.LinuxSyscallRegistry()
	}
	return isa.NewRegistry()
}
