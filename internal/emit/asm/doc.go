// Package asm is reserved for the alternate ARM64/x86-64 assembly
// emission backends named in spec §4.E ("C primary, ARM64/x86-64
// assembly alternates"). The C backend (internal/emit/c) is the one
// exercised by the rest of this repo — the build/run CLI, the runtime
// loader, and the differential tester all drive it. See DESIGN.md for
// why a second full code generator is deferred rather than stubbed.
package asm
