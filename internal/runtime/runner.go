// Package runtime loads a compiled module's shared library and drives
// guest runs across it (spec §7 "Runtime"): dlopen the artifact,
// resolve rv_execute_from and its metadata symbols, copy loadable
// segments into guarded memory, seed sp/gp, and cross the narrow FFI
// waist with ebitengine/purego -- no cgo, so the CLI itself stays a
// static Go binary (spec §9 "narrowest waist").
package runtime

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/rvrecompiler/rvr/internal/elfimage"
	"github.com/rvrecompiler/rvr/internal/rvrerr"
	"github.com/rvrecompiler/rvr/internal/state"
)

// stackTopSymbol and globalPointerSymbol are the ELF symbols the
// runtime seeds sp/gp from when present (spec §7 per-run lifecycle).
const (
	stackTopSymbol     = "__stack_top"
	globalPointerSymbol = "__global_pointer$"
)

const (
	regSP = 2
	regGP = 3
)

// Runner owns one dlopen'd compiled module and the guarded memory a
// run executes against.
type Runner struct {
	handle       uintptr
	rvExecuteFrom func(st unsafe.Pointer, pc uint64) uint64
	mem          *state.GuardedMemory
	image        *elfimage.Image
}

// Open dlopens the compiled shared library at path and resolves its
// entry symbol (spec §9: "the single symbol the runtime resolves via
// dlsym").
func Open(path string, img *elfimage.Image, memBase, memSize uint64) (*Runner, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.LoadError, err, "dlopen compiled module")
	}

	mem, err := state.NewGuardedMemory(memBase, memSize)
	if err != nil {
		return nil, rvrerr.Wrap(rvrerr.LoadError, err, "allocate guarded memory")
	}

	r := &Runner{handle: handle, mem: mem, image: img}
	purego.RegisterLibFunc(&r.rvExecuteFrom, handle, "rv_execute_from")
	return r, nil
}

// Close unmaps guarded memory. The dynamic library itself is left
// mapped for the process lifetime, matching purego's lack of a
// portable dlclose.
func (r *Runner) Close() error {
	return r.mem.Close()
}

// Run resets state and guarded memory, copies every loadable segment,
// seeds sp/gp from __stack_top/__global_pointer$ when the image
// defines them, sets pc, and crosses into rv_execute_from (spec §7
// "For each run: clears memory, copies loadable segments ... invokes
// rv_execute_from").
func (r *Runner) Run(startPC uint64) (*state.MachineState, error) {
	var st state.MachineState
	st.Reset()

	r.mem.Clear()
	for _, seg := range r.image.Segments {
		if err := r.mem.CopySegment(seg.VAddr, seg.Data); err != nil {
			return nil, rvrerr.Wrap(rvrerr.LoadError, err, "copy loadable segment")
		}
	}
	st.Mem = uintptr(unsafe.Pointer(&r.mem.Bytes()[0]))
	st.MemBase = r.mem.Base()
	st.MemSize = uint64(len(r.mem.Bytes()))

	if v, ok := r.image.Lookup(stackTopSymbol); ok {
		st.X[regSP] = v
	}
	if v, ok := r.image.Lookup(globalPointerSymbol); ok {
		st.X[regGP] = v
	}
	st.Pc = startPC

	r.rvExecuteFrom(unsafe.Pointer(&st), startPC)

	if st.Trapped != 0 {
		return &st, rvrerr.Newf(rvrerr.ExecutionExit, "guest trapped: %s", st.TrapMessageString())
	}
	return &st, nil
}

// Symbol resolves an additional exported symbol's address, used for
// the optional RV_TRACER_KIND/RV_INSTRET_MODE/RV_FIXED_STATE_ADDR/
// RV_FIXED_MEMORY_ADDR metadata (spec §7 Fixed-Address mode).
func (r *Runner) Symbol(name string) (uintptr, error) {
	addr, err := purego.Dlsym(r.handle, name)
	if err != nil {
		return 0, rvrerr.Wrap(rvrerr.LoadError, err, fmt.Sprintf("resolve symbol %s", name))
	}
	return addr, nil
}
