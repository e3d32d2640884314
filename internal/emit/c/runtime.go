package c

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/htif"
)

// RuntimeHeader renders rv_runtime.h: the MachineState layout and the
// small set of helper functions (load/store, CSR access, trap
// signaling, the signed-division/shift intrinsics the host compiler
// doesn't expose directly) every generated block function depends on.
// It is written alongside the emitted .c file before invoking the host
// compiler (spec §7 "narrowest waist" -- the C struct this header
// declares IS MachineState's C-visible layout, kept in lockstep with
// internal/state.MachineState).
func RuntimeHeader(numRegs int) string {
	return fmt.Sprintf(`#ifndef RV_RUNTIME_H
#define RV_RUNTIME_H

#include <stdint.h>
#include <stdio.h>
#include <string.h>

#define RV_HTIF_TOHOST_ADDR %#xULL
#define RV_HTIF_FROMHOST_ADDR %#xULL
#define RV_HTIF_SYS_WRITE %dULL
#define RV_HTIF_STDOUT_FD %dULL

typedef struct rv_state {
    uint64_t x[%d];
    uint64_t pc;
    uint64_t instret;
    uint64_t target_instret;
    int64_t  exit_code;
    int      has_exited;
    int      trapped;
    char     trap_message[128];
    uint8_t *mem;
    uint64_t mem_base;
    uint64_t mem_size;
    uint64_t brk;
    uint64_t csr[4096];
} rv_state_t;

static inline void rv_trap(rv_state_t *st, const char *msg) {
    st->trapped = 1;
    strncpy(st->trap_message, msg, sizeof(st->trap_message) - 1);
}

static inline uint64_t rv_csr_read(rv_state_t *st, uint32_t addr) {
    return st->csr[addr & 0xfffu];
}

static inline void rv_csr_write(rv_state_t *st, uint32_t addr, uint64_t value) {
    st->csr[addr & 0xfffu] = value;
}

static inline uint64_t rv_load8(rv_state_t *st, uint64_t addr) {
    uint64_t off = addr - st->mem_base;
    if (off >= st->mem_size) { rv_trap(st, "load out of bounds"); return 0; }
    uint8_t v; memcpy(&v, st->mem + off, 1); return v;
}
static inline uint64_t rv_load16(rv_state_t *st, uint64_t addr) {
    uint64_t off = addr - st->mem_base;
    if (off + 2 > st->mem_size) { rv_trap(st, "load out of bounds"); return 0; }
    uint16_t v; memcpy(&v, st->mem + off, 2); return v;
}
static inline uint64_t rv_load32(rv_state_t *st, uint64_t addr) {
    uint64_t off = addr - st->mem_base;
    if (off + 4 > st->mem_size) { rv_trap(st, "load out of bounds"); return 0; }
    uint32_t v; memcpy(&v, st->mem + off, 4); return v;
}
static inline uint64_t rv_load64(rv_state_t *st, uint64_t addr) {
    uint64_t off = addr - st->mem_base;
    if (off + 8 > st->mem_size) { rv_trap(st, "load out of bounds"); return 0; }
    uint64_t v; memcpy(&v, st->mem + off, 8); return v;
}

static inline void rv_store8(rv_state_t *st, uint64_t addr, uint64_t value) {
    uint64_t off = addr - st->mem_base;
    if (off >= st->mem_size) { rv_trap(st, "store out of bounds"); return; }
    uint8_t v = (uint8_t)value; memcpy(st->mem + off, &v, 1);
}
static inline void rv_store16(rv_state_t *st, uint64_t addr, uint64_t value) {
    uint64_t off = addr - st->mem_base;
    if (off + 2 > st->mem_size) { rv_trap(st, "store out of bounds"); return; }
    uint16_t v = (uint16_t)value; memcpy(st->mem + off, &v, 2);
}
static inline void rv_store32(rv_state_t *st, uint64_t addr, uint64_t value) {
    uint64_t off = addr - st->mem_base;
    if (off + 4 > st->mem_size) { rv_trap(st, "store out of bounds"); return; }
    uint32_t v = (uint32_t)value; memcpy(st->mem + off, &v, 4);
}
static inline void rv_store64(rv_state_t *st, uint64_t addr, uint64_t value) {
    uint64_t off = addr - st->mem_base;
    if (off + 8 > st->mem_size) { rv_trap(st, "store out of bounds"); return; }
    uint64_t v = value; memcpy(st->mem + off, &v, 8);
}

// rv_handle_tohost_write intercepts a guest store to RV_HTIF_TOHOST_ADDR
// (spec §4.E/§6 scenario S2): an odd value is an exit request (bit 0
// set, payload >>1 is the exit code); any other nonzero value is a
// guest pointer to a four-word {syscall, fd, buf, len} magic_mem
// block, mirroring the riscv-tests HTIF proxy-syscall convention. Only
// the write(2) subset is forwarded, to the real host stdout; the
// result is written back to the block and fromhost is acked so guest
// polling code observes completion.
static inline void rv_handle_tohost_write(rv_state_t *st, uint64_t value) {
    if (value & 1ULL) {
        st->has_exited = 1;
        st->exit_code = (int64_t)(value >> 1);
        return;
    }
    if (value == 0) return;

    uint64_t num = rv_load64(st, value);
    uint64_t fd = rv_load64(st, value + 8);
    uint64_t buf = rv_load64(st, value + 16);
    uint64_t len = rv_load64(st, value + 24);

    uint64_t result = (uint64_t)-1;
    if (num == RV_HTIF_SYS_WRITE && fd == RV_HTIF_STDOUT_FD) {
        uint64_t off = buf - st->mem_base;
        if (off + len <= st->mem_size) {
            fwrite(st->mem + off, 1, (size_t)len, stdout);
            result = len;
        }
    }
    rv_store64(st, value, result);
    rv_store64(st, RV_HTIF_FROMHOST_ADDR, 1ULL);
}

static inline uint64_t rv_sext(uint64_t v, int bits) {
    int shift = 64 - bits;
    return (uint64_t)(((int64_t)(v << shift)) >> shift);
}
static inline uint64_t rv_zext(uint64_t v, int bits) {
    if (bits >= 64) return v;
    return v & (((uint64_t)1 << bits) - 1);
}
static inline uint64_t rv_sra(uint64_t a, uint64_t shamt) {
    return (uint64_t)(((int64_t)a) >> (shamt & 63));
}
static inline uint64_t rv_divs(uint64_t a, uint64_t b) {
    int64_t sa = (int64_t)a, sb = (int64_t)b;
    if (sb == 0) return (uint64_t)-1;
    if (sa == INT64_MIN && sb == -1) return (uint64_t)sa;
    return (uint64_t)(sa / sb);
}
static inline uint64_t rv_rems(uint64_t a, uint64_t b) {
    int64_t sa = (int64_t)a, sb = (int64_t)b;
    if (sb == 0) return a;
    if (sa == INT64_MIN && sb == -1) return 0;
    return (uint64_t)(sa %% sb);
}
static inline uint64_t rv_lts(uint64_t a, uint64_t b) { return (int64_t)a < (int64_t)b; }
static inline uint64_t rv_ges(uint64_t a, uint64_t b) { return (int64_t)a >= (int64_t)b; }
static inline uint64_t rv_mulh(uint64_t a, uint64_t b) {
    __int128 r = (__int128)(int64_t)a * (__int128)(int64_t)b;
    return (uint64_t)(r >> 64);
}
static inline uint64_t rv_mulhu(uint64_t a, uint64_t b) {
    unsigned __int128 r = (unsigned __int128)a * (unsigned __int128)b;
    return (uint64_t)(r >> 64);
}
static inline uint64_t rv_mulhsu(uint64_t a, uint64_t b) {
    __int128 r = (__int128)(int64_t)a * (__int128)b;
    return (uint64_t)(r >> 64);
}

static inline void rv_trace_block(rv_state_t *st, uint64_t pc) { (void)st; (void)pc; }

uint64_t rv_execute_from(rv_state_t *st, uint64_t pc);

#endif
`, htif.TohostAddr, htif.FromhostAddr, htif.SysWrite, htif.StdoutFd, numRegs)
}
