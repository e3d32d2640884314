package isa

// Override lets a caller substitute custom lift semantics for a
// specific opcode without forking the decoder registry -- the lifter
// checks the registry before falling back to its built-in per-opcode
// table (spec §4.B "ECALL is deliberately configurable"). The default
// registry is empty; a front end configures it once (e.g. bare-metal
// HTIF exit-on-ECALL vs. a Linux-syscall-numbered ECALL) and shares it
// across every block lift.
type Override struct {
	// Kind distinguishes how the lifter should treat the overridden
	// instruction. The zero value, OverrideNone, means "use the
	// built-in default lift".
	Kind OverrideKind
}

// OverrideKind enumerates the supported ECALL override behaviors.
type OverrideKind uint8

const (
	// OverrideNone means no override is registered; the lifter's
	// built-in default applies (HTIF-style Exit{a0} for ECALL).
	OverrideNone OverrideKind = iota
	// OverrideExtern lifts the instruction to an ExternCall statement
	// naming a syscall shim instead of an Exit terminator; the shim gets
	// the Linux-style syscall number (a7, or t0 on an embedded build)
	// and a0-a5, and its result is written back to a0.
	OverrideExtern
)

// Registry maps an OpId to an Override. Only OpEcall is expected to be
// registered in practice, but the type stays general in case a future
// extension needs the same hook.
type Registry struct {
	overrides map[OpId]Override
}

// NewRegistry builds an empty override registry.
func NewRegistry() *Registry {
	return &Registry{overrides: make(map[OpId]Override)}
}

// Set installs an override for id.
func (r *Registry) Set(id OpId, o Override) {
	r.overrides[id] = o
}

// Lookup returns the override registered for id, if any.
func (r *Registry) Lookup(id OpId) (Override, bool) {
	o, ok := r.overrides[id]
	return o, ok
}

// LinuxSyscallRegistry returns a Registry with ECALL routed through
// ExternCall, matching the Linux ABI convention where a7 carries the
// syscall number and a0-a5 carry arguments (spec §4.C "ECALL").
func LinuxSyscallRegistry() *Registry {
	r := NewRegistry()
	r.Set(OpEcall, Override{Kind: OverrideExtern})
	return r
}
