package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/elfimage"
	"github.com/rvrecompiler/rvr/internal/emit"
	emitc "github.com/rvrecompiler/rvr/internal/emit/c"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/lift"
	"github.com/rvrecompiler/rvr/internal/rvrconfig"
	"github.com/rvrecompiler/rvr/internal/rvrlog"
)

// runBuild compiles elfPath to C source, then shells out to the host
// C compiler to produce a position-independent shared library (spec
// §6 data flow: "... native source -> host compiler -> shared
// library"). Host toolchain discovery is deliberately out of scope
// (spec.md's Non-goals): ccPath defaults to plain "cc" and is never
// probed for capability.
func runBuild(elfPath, ccPath, soOut, cOut string, configPath *string, verbose bool) error {
	cfg := rvrconfig.Default()
	if *configPath != "" {
		loaded, err := rvrconfig.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	log := rvrlog.New(verbose)

	data, err := os.ReadFile(elfPath)
	if err != nil {
		return err
	}
	img, err := elfimage.Parse(data, cfg.Xlen(), cfg.MaxSegmentsOrDefault())
	if err != nil {
		return err
	}

	decoder := isa.Standard(cfg.Xlen(), cfg.Embedded)
	lifter := lift.New(cfg.Xlen(), syscallRegistry(cfg), cfg.Embedded)
	builder := cfgbuild.NewBuilder(decoder, lifter, img.Segments)
	graph, err := builder.Build(img.Entry)
	if err != nil {
		return err
	}

	meta := emit.ModuleMeta{
		Width:           cfg.Xlen(),
		Tracer:          cfg.TracerKind(),
		Instret:         cfg.InstretModeValue(),
		HotRegs:         emit.SelectHotRegs(graph, cfg.HotRegCount),
		CompactDispatch: cfg.CompactDispatch,
		EntrySymbol:     cfg.EntrySymbol,
	}
	src, err := emitc.New().EmitModule(graph, meta)
	if err != nil {
		return err
	}

	cPath := cOut
	if cPath == "" {
		cPath = strings.TrimSuffix(elfPath, filepath.Ext(elfPath)) + ".rvr.c"
	}
	if err := os.WriteFile(cPath, []byte(src), 0o644); err != nil {
		return err
	}
	headerPath := filepath.Join(filepath.Dir(cPath), "rv_runtime.h")
	if err := os.WriteFile(headerPath, []byte(emitc.RuntimeHeader(32)), 0o644); err != nil {
		return err
	}

	soPath := soOut
	if soPath == "" {
		soPath = elfPath + ".so"
	}
	args := []string{"-shared", "-fPIC", "-O2", "-o", soPath, cPath}
	log.Infof("running %s %s", ccPath, strings.Join(args, " "))
	cc := exec.Command(ccPath, args...)
	cc.Stdout = os.Stdout
	cc.Stderr = os.Stderr
	if err := cc.Run(); err != nil {
		return fmt.Errorf("host compiler failed: %w", err)
	}
	log.Infof("wrote %s", soPath)
	return nil
}
