package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/elfimage"
	"github.com/rvrecompiler/rvr/internal/interp"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/lift"
	"github.com/rvrecompiler/rvr/internal/rvrconfig"
	"github.com/rvrecompiler/rvr/internal/runtime"
	"github.com/rvrecompiler/rvr/internal/state"
)

// newDevDiffCmd builds "dev diff": run the same ELF through the
// pure-Go interpreter and the host-compiled shared library, and
// report any divergence in final registers or exit status (spec's
// SUPPLEMENTED "dev diff" differential tester, §7 InstretPerInstruction
// "used by the differential tester").
func newDevDiffCmd(configPath *string) *cobra.Command {
	var soPath string
	cmd := &cobra.Command{
		Use:   "diff <elf>",
		Short: "Diff the pure-Go interpreter against a compiled shared library run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rvrconfig.Default()
			if *configPath != "" {
				loaded, err := rvrconfig.Load(*configPath)
				if err != nil {
					return err
				}
				cfg = loaded
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

			memBase := img.Entry &^ 0xfff
			const memSize = 64 << 20

			mem, err := state.NewGuardedMemory(memBase, memSize)
			if err != nil {
				return err
			}
			defer mem.Close()
			for _, seg := range img.Segments {
				if err := mem.CopySegment(seg.VAddr, seg.Data); err != nil {
					return err
				}
			}

			var interpState state.MachineState
			if err := interp.New(graph, mem).Run(&interpState, img.Entry); err != nil {
				fmt.Printf("interpreter run ended with: %v\n", err)
			}

			lib := soPath
			if lib == "" {
				lib = args[0] + ".so"
			}
			runner, err := runtime.Open(lib, img, memBase, memSize)
			if err != nil {
				return fmt.Errorf("diff requires a built shared library (run `rvr build` first): %w", err)
			}
			defer runner.Close()

			nativeState, runErr := runner.Run(img.Entry)
			if runErr != nil && nativeState == nil {
				return runErr
			}

			mismatch := false
			if interpState.ExitCode != nativeState.ExitCode {
				fmt.Printf("exit code mismatch: interp=%d native=%d\n", interpState.ExitCode, nativeState.ExitCode)
				mismatch = true
			}
			for i := range interpState.X {
				if interpState.X[i] != nativeState.X[i] {
					fmt.Printf("x%d mismatch: interp=%#x native=%#x\n", i, interpState.X[i], nativeState.X[i])
					mismatch = true
				}
			}
			if mismatch {
				return fmt.Errorf("interpreter and compiled run diverged")
			}
			fmt.Println("match: interpreter and compiled run agree")
			return nil
		},
	}
	cmd.Flags().StringVar(&soPath, "lib", "", "path to an already-built shared library")
	return cmd
}
