package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/elfimage"
	"github.com/rvrecompiler/rvr/internal/emit"
	emitc "github.com/rvrecompiler/rvr/internal/emit/c"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/lift"
	"github.com/rvrecompiler/rvr/internal/rvrconfig"
	"github.com/rvrecompiler/rvr/internal/rvrlog"
	"github.com/rvrecompiler/rvr/internal/runtime"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rvr",
		Short: "rvr — static RISC-V recompiler",
	}

	var configPath string
	var verbose bool
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML build configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	loadConfig := func() (rvrconfig.Config, error) {
		if configPath == "" {
			return rvrconfig.Default(), nil
		}
		return rvrconfig.Load(configPath)
	}

	// compile: ELF -> CFG -> generated C source, written next to the input.
	var compileOut string
	compileCmd := &cobra.Command{
		Use:   "compile <elf>",
		Short: "Compile a RISC-V ELF binary into generated backend source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rvrlog.New(verbose)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := elfimage.Parse(data, cfg.Xlen(), cfg.MaxSegmentsOrDefault())
			if err != nil {
				return err
			}
			log.Infof("parsed elf: entry=%#x segments=%d", img.Entry, len(img.Segments))

			decoder := isa.Standard(cfg.Xlen(), cfg.Embedded)
			lifter := lift.New(cfg.Xlen(), syscallRegistry(cfg), cfg.Embedded)
			builder := cfgbuild.NewBuilder(decoder, lifter, img.Segments)
			graph, err := builder.Build(img.Entry)
			if err != nil {
				return err
			}
			log.Infof("built cfg: blocks=%d", len(graph.Blocks))

			meta := emit.ModuleMeta{
				Width:           cfg.Xlen(),
				Tracer:          cfg.TracerKind(),
				Instret:         cfg.InstretModeValue(),
				HotRegs:         emit.SelectHotRegs(graph, cfg.HotRegCount),
				CompactDispatch: cfg.CompactDispatch,
				EntrySymbol:     cfg.EntrySymbol,
			}
			backend := emitc.New()
			src, err := backend.EmitModule(graph, meta)
			if err != nil {
				return err
			}

			out := compileOut
			if out == "" {
				out = args[0] + ".c"
			}
			if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
				return err
			}
			headerPath := filepath.Join(filepath.Dir(out), "rv_runtime.h")
			if err := os.WriteFile(headerPath, []byte(emitc.RuntimeHeader(32)), 0o644); err != nil {
				return err
			}
			log.Infof("wrote %s and %s", out, headerPath)
			return nil
		},
	}
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "", "output .c path (default: <input>.c)")

	// lift: ELF -> block and instruction counts, a cheap sanity pass over
	// the decoder, lifter and CFG builder that emits no code.
	liftCmd := &cobra.Command{
		Use:   "lift <elf>",
		Short: "Decode and lift an ELF binary's code segments, reporting counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
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
			instrs := 0
			for _, blk := range graph.Blocks {
				instrs += blk.Len()
			}
			fmt.Printf("blocks: %d\ninstructions: %d\n", len(graph.Blocks), instrs)
			return nil
		},
	}

	// build: compile, then shell out to the host C compiler to produce a
	// shared library (spec §7 "host compiler" stage).
	var ccPath string
	var buildOut string
	buildCmd := &cobra.Command{
		Use:   "build <elf>",
		Short: "Compile and build a loadable shared library from an ELF binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], ccPath, buildOut, compileOut, &configPath, verbose)
		},
	}
	buildCmd.Flags().StringVar(&ccPath, "cc", "cc", "host C compiler to invoke")
	buildCmd.Flags().StringVarP(&buildOut, "output", "o", "", "output shared library path (default: <input>.so)")

	// run: execute an already-built shared library via purego (--lib, or
	// <elf>.so by default); it does not build one.
	var soPath string
	var entryOverride string
	runCmd := &cobra.Command{
		Use:   "run <elf>",
		Short: "Load and execute a compiled RISC-V binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rvrlog.New(verbose)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := elfimage.Parse(data, cfg.Xlen(), cfg.MaxSegmentsOrDefault())
			if err != nil {
				return err
			}

			lib := soPath
			if lib == "" {
				lib = args[0] + ".so"
			}
			r, err := runtime.Open(lib, img, img.Entry&^0xfff, 64<<20)
			if err != nil {
				return err
			}
			defer r.Close()

			startPC := img.Entry
			if entryOverride != "" {
				v, err := strconv.ParseUint(strings.TrimPrefix(entryOverride, "0x"), 16, 64)
				if err != nil {
					return fmt.Errorf("bad --entry value: %w", err)
				}
				startPC = v
			}

			st, err := r.Run(startPC)
			if err != nil {
				return err
			}
			log.Infof("guest exited: code=%d instret=%d", st.ExitCode, st.Instret)
			os.Exit(int(st.ExitCode))
			return nil
		},
	}
	runCmd.Flags().StringVar(&soPath, "lib", "", "path to an already-built shared library")
	runCmd.Flags().StringVar(&entryOverride, "entry", "", "override the start pc (hex, e.g. 0x10000)")

	devCmd := &cobra.Command{Use: "dev", Short: "Developer diagnostics"}
	devCmd.AddCommand(newDevDiffCmd(&configPath))

	rootCmd.AddCommand(compileCmd, liftCmd, buildCmd, runCmd, devCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
