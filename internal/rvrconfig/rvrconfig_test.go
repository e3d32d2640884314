package rvrconfig

import (
	"testing"

	"github.com/rvrecompiler/rvr/internal/emit"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

func TestDefaultIsRV64WithPrincipledDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Xlen() != xlen.RV64 {
		t.Fatalf("expected default width rv64")
	}
	if cfg.MaxSegmentsOrDefault() != DefaultMaxSegments {
		t.Fatalf("expected default max segments %d, got %d", DefaultMaxSegments, cfg.MaxSegmentsOrDefault())
	}
	if cfg.TracerKind() != emit.TracerNone {
		t.Fatalf("expected default tracer none")
	}
}

func TestXlenRV32Override(t *testing.T) {
	cfg := Default()
	cfg.Width = "rv32"
	if cfg.Xlen() != xlen.RV32 {
		t.Fatalf("expected rv32 override to take effect")
	}
}

func TestMaxSegmentsOrDefaultFallsBackOnZero(t *testing.T) {
	cfg := Config{MaxSegments: 0}
	if got := cfg.MaxSegmentsOrDefault(); got != DefaultMaxSegments {
		t.Fatalf("expected fallback to default, got %d", got)
	}
	cfg.MaxSegments = 8
	if got := cfg.MaxSegmentsOrDefault(); got != 8 {
		t.Fatalf("expected explicit value 8, got %d", got)
	}
}

func TestTracerKindResolvesAllNames(t *testing.T) {
	cases := map[string]emit.TracerKind{
		"preflight":     emit.TracerPreflight,
		"stats":         emit.TracerStats,
		"debug":         emit.TracerDebug,
		"spike":         emit.TracerSpike,
		"diff":          emit.TracerDiff,
		"buffered_diff": emit.TracerBufferedDiff,
		"ffi":           emit.TracerFfi,
		"dynamic":       emit.TracerDynamic,
		"bogus":         emit.TracerNone,
	}
	for name, want := range cases {
		cfg := Config{Tracer: name}
		if got := cfg.TracerKind(); got != want {
			t.Errorf("tracer %q: got %v, want %v", name, got, want)
		}
	}
}

func TestInstretModeValueResolvesAllNames(t *testing.T) {
	cases := map[string]emit.InstretMode{
		"count":           emit.InstretCount,
		"suspend":         emit.InstretSuspend,
		"per_instruction": emit.InstretPerInstruction,
		"off":             emit.InstretOff,
	}
	for name, want := range cases {
		cfg := Config{InstretMode: name}
		if got := cfg.InstretModeValue(); got != want {
			t.Errorf("instret mode %q: got %v, want %v", name, got, want)
		}
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/rvr.toml"); err == nil {
		t.Fatalf("expected an error loading a nonexistent config file")
	}
}
