// Command p2sieve evaluates P2(x, y), the second partial sieve function
// at the core of the Meissel/Lehmer/Lagarias-Miller-Odlyzko/
// Deleglise-Rivat family of combinatorial prime-counting algorithms. It
// is a thin host around the core worker/orchestrator, wired the way the
// teacher's rootCmd / init() / loadConfigFromFile trio is; the wider
// S1/S2/phi function family is not part of it.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/lionell/parcs/go/parcs"
	"github.com/spf13/cobra"

	"github.com/spsforks/kimwalisch-primecount/internal/cluster"
	"github.com/spsforks/kimwalisch-primecount/internal/config"
	"github.com/spsforks/kimwalisch-primecount/internal/int128"
	"github.com/spsforks/kimwalisch-primecount/internal/logging"
	"github.com/spsforks/kimwalisch-primecount/internal/p2"
)

var (
	configPath    string
	flagX         int64
	flagY         int64
	flagThreads   int
	flagWide      bool
	flagStatus    bool
	statusDigits  int
	clusterRanks  int
	flagShardWork bool
)

var rootCmd = &cobra.Command{
	Use:   "p2sieve",
	Short: "Computes the second partial sieve function P2(x, y)",
	Long: `p2sieve evaluates P2(x, y), the dominant subroutine inside the
Meissel/Lehmer/Lagarias-Miller-Odlyzko/Deleglise-Rivat family of
combinatorial prime-counting algorithms.`,
	RunE: runP2,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "configuration file path (optional)")
	rootCmd.Flags().Int64Var(&flagX, "x", 0, "upper bound x")
	rootCmd.Flags().Int64Var(&flagY, "y", 0, "prime-index threshold y")
	rootCmd.Flags().IntVar(&flagThreads, "threads", 0, "worker thread count (0 = GOMAXPROCS)")
	rootCmd.Flags().BoolVar(&flagWide, "wide", false, "use the 128-bit accumulator path")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "print round-by-round progress")
	rootCmd.Flags().IntVar(&statusDigits, "status-digits", 2, "decimal digits of status precision")
	rootCmd.Flags().IntVar(&clusterRanks, "cluster-ranks", 0, "distributed mode rank count (0 = single process)")
	rootCmd.Flags().BoolVar(&flagShardWork, "shard-worker", false, "run as a dispatched shard worker instead of a master (internal use: the image cluster.WorkerImage names runs this mode)")
}

func runP2(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	if flagShardWork {
		return runShardWorker(cfg)
	}

	logger := logging.New(cfg.LogLevel, cfg.Verbose)
	logger.Infof("=== P2(x, y) ===")
	threads := cfg.ResolvedThreads(runtime.GOMAXPROCS(0))
	logger.Infof("x=%d y=%d threads=%d wide=%v", cfg.X, cfg.Y, threads, cfg.Wide)

	opts := p2.Options{
		Logger:      logger,
		MinDistance: cfg.MinDistance,
	}
	if cfg.StatusEnabled {
		opts.Status = func(low, z int64) {
			percent := 100.0
			if z > 0 {
				percent = float64(low) / float64(z) * 100
			}
			fmt.Printf("\rstatus: %.*f%%", cfg.StatusPrecision, percent)
		}
	}

	group := newGroup(cfg, threads)

	start := time.Now()
	if cfg.Wide {
		result := computeWide(cfg, threads, group, opts)
		finish(opts, logger, start, result.String())
	} else {
		result := computeNarrow(cfg, threads, group, opts)
		finish(opts, logger, start, fmt.Sprintf("%d", result))
	}
	return nil
}

// newGroup picks the collective-reduction handle runP2 dispatches
// through: a single-process identity when clustering isn't requested, or
// a real ParcsGroup backed by parcs.DefaultRunner() -- the same runner
// construction master.go uses -- when cfg.Cluster names more than one
// rank. Every other rank is expected to be this same binary, started
// with --shard-worker against the image cluster.WorkerImage names.
func newGroup(cfg *config.Config, threads int) cluster.Group {
	if !cfg.Cluster.Enabled || cfg.Cluster.Ranks <= 1 {
		return cluster.Local{}
	}
	runner := parcs.DefaultRunner()
	if cfg.Wide {
		return cluster.NewParcsGroup(runner, cfg.Cluster.Ranks, int128.FromInt64(cfg.X), cfg.Y, threads)
	}
	return cluster.NewParcsGroupInt64(runner, cfg.Cluster.Ranks, cfg.X, cfg.Y, threads)
}

// runShardWorker is what a --shard-worker invocation runs: receive one
// shard request over the parcs task connection, compute its contribution
// via p2.ShardSum/p2.ShardSumWide, and reply. This is the task side of
// the same protocol newGroup's ParcsGroup drives from the master side.
func runShardWorker(cfg *config.Config) error {
	runner := parcs.DefaultRunner()
	opts := p2.Options{MinDistance: cfg.MinDistance}

	if cfg.Wide {
		return cluster.ShardWorkerMainWide(runner, func(x int128.Int128, y, low, high int64, threads int) int128.Int128 {
			return p2.ShardSumWide(x, y, low, high, threads, opts)
		})
	}
	return cluster.ShardWorkerMain(runner, func(x, y, low, high int64, threads int) int64 {
		return p2.ShardSum(x, y, low, high, threads, opts)
	})
}

func computeNarrow(cfg *config.Config, threads int, group cluster.Group, opts p2.Options) int64 {
	if cfg.Cluster.Enabled && group.Size() > 1 {
		return p2.DistributedP2(cfg.X, cfg.Y, threads, group, opts)
	}
	return p2.P2(cfg.X, cfg.Y, threads, opts)
}

func computeWide(cfg *config.Config, threads int, group cluster.Group, opts p2.Options) int128.Int128 {
	wx := int128.FromInt64(cfg.X)
	if cfg.Cluster.Enabled && group.Size() > 1 {
		return p2.DistributedP2Wide(wx, cfg.Y, threads, group, opts)
	}
	return p2.P2Wide(wx, cfg.Y, threads, opts)
}

func finish(opts p2.Options, logger logging.Logger, start time.Time, result string) {
	if opts.Status != nil {
		fmt.Println()
	}
	logger.Infof("P2 = %s (%s)", result, time.Since(start))
	fmt.Println(result)
}

func applyFlagOverrides(cfg *config.Config) {
	if flagX != 0 {
		cfg.X = flagX
	}
	if flagY != 0 {
		cfg.Y = flagY
	}
	if flagThreads != 0 {
		cfg.Threads = flagThreads
	}
	if flagWide {
		cfg.Wide = true
	}
	if flagStatus {
		cfg.StatusEnabled = true
		cfg.StatusPrecision = statusDigits
	}
	if clusterRanks > 1 {
		cfg.Cluster.Enabled = true
		cfg.Cluster.Ranks = clusterRanks
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
