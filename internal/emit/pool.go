package emit

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/ir"
)

// BlockEmitFunc renders one merged block to source text for a
// specific backend.
type BlockEmitFunc func(startPc uint64, blk *ir.BlockIR, meta ModuleMeta) (string, error)

// ParallelEmitStats mirrors the teacher's result.Table bookkeeping
// (pkg/result/table.go) but is scoped to one emission run: how many
// blocks were rendered, and in Workers how many distinct worker slots
// (block index modulo numWorkers, a single slot when numWorkers is 0)
// received a block.
type ParallelEmitStats struct {
	BlocksEmitted int64
	Workers       int
}

// EmitBlocksParallel renders every block in cfg concurrently, bounded
// by numWorkers (0 means no limit: one goroutine per block), and returns the rendered text in deterministic
// (ascending start-address) order regardless of completion order --
// adapted from the teacher's WorkerPool (pkg/search/worker.go), traded
// for golang.org/x/sync/errgroup because block emission has no partial
// "found it, stop enumerating" early exit the way the search workers
// do: every block must be emitted, so a simple bounded fan-out with
// error propagation is the better fit than a channel-drained pool.
func EmitBlocksParallel(ctx context.Context, cfg *cfgbuild.CFG, meta ModuleMeta, numWorkers int, fn BlockEmitFunc) ([]string, ParallelEmitStats, error) {
	starts := cfg.SortedBlockStarts()
	results := make([]string, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	if numWorkers > 0 {
		g.SetLimit(numWorkers)
	}

	var emitted atomic.Int64
	var mu sync.Mutex
	workersSeen := map[int]bool{}

	for i, start := range starts {
		i, start := i, start
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			text, err := fn(start, cfg.Blocks[start], meta)
			if err != nil {
				return err
			}
			results[i] = text
			emitted.Add(1)
			mu.Lock()
			workersSeen[i%max(numWorkers, 1)] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, ParallelEmitStats{}, err
	}

	stats := ParallelEmitStats{BlocksEmitted: emitted.Load(), Workers: len(workersSeen)}
	return results, stats, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// SortedDispatchTargets returns every address an indirect jump can
// legally land on: every merged block's start address, ascending.
// This is NOT built from Terminator.Resolved -- no lift path ever
// populates that hint list (JALR and c.jr/c.jalr always lower to
// BuildJumpDyn(addr, nil)), so a table built from it is always empty
// and every indirect jump -- i.e. every non-tail-call function return
// -- traps instead of resuming. A merged block's start address is the
// only address the CFG builder can resolve a dynamic jump into an
// emitted function at all (see CFG.Resolve), so it is the correct and
// only real address-resolution strategy available pre-execution.
func SortedDispatchTargets(cfg *cfgbuild.CFG) []uint64 {
	return cfg.SortedBlockStarts()
}
