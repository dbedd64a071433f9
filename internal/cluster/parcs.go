package cluster

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spsforks/kimwalisch-primecount/internal/int128"
)

// WorkerImage names the container image a ParcsGroup dispatches shard
// work to: this module's own binary, run in "--shard-worker" mode. The
// retrieved corpus's only parcs example
// (Braun-Alex-distributed-computing__master.go) dispatches to a
// separately published image by name; here that image is this same
// repository, so every rank runs identical code.
const WorkerImage = "p2sieve/p2-shard-worker"

// Task is the subset of a started parcs task's API a shard dispatch
// needs: send the request, receive the reply, tear down. *parcs.Task
// (the type master.go's t.Start(...) returns) satisfies this directly;
// it is narrowed to an interface here, the way logging.Logger narrows
// *logrus.Logger, so AllReduceSum/dispatchShard can be driven by a fake
// in a unit test instead of a live parcs cluster.
type Task interface {
	SendAll(args ...interface{}) error
	Recv(v interface{}) error
	Shutdown()
}

// Starter is the subset of *parcs.Runner's API a ParcsGroup needs to
// start a shard task. cmd/p2sieve passes a real parcs.DefaultRunner()
// here; tests pass a fake that runs the shard in-process.
type Starter interface {
	Start(image string) (Task, error)
}

// Responder is the subset of *parcs.Runner's API a shard worker needs on
// the receiving end: read the dispatched request, send back the reply.
// There is no Go example anywhere in the retrieved corpus of the task
// side of a parcs conversation (the pack's one parcs file,
// Braun-Alex-distributed-computing__master.go, only shows the master
// dispatching to a separately published, non-Go worker image), so this
// interface's shape -- RecvAll mirroring SendAll, Send mirroring Recv --
// is inferred symmetrically from the master side rather than grounded on
// an observed file. DESIGN.md calls this out explicitly.
type Responder interface {
	RecvAll(args ...interface{}) error
	Send(v interface{}) error
}

// shardRequest is what the master sends a started task: the full
// computation a shard needs to run standalone, since the remote task has
// no access to the master's in-process state.
type shardRequest struct {
	RunID   string
	X       int64
	Y       int64
	Low     int64
	High    int64
	Threads int
}

// shardReply is what a shard worker sends back.
type shardReply struct {
	Sum int64
}

// shardReplyWide is shardReply's 128-bit counterpart. Int128's hi/lo
// fields are unexported, so the wire value is carried as two plain
// integers via int128.FromParts/Parts rather than the type itself.
type shardReplyWide struct {
	SumHi int64
	SumLo uint64
}

// ParcsGroup drives P2's distributed mode with rank 0 (this process)
// acting as master: it computes its own shard locally, dispatches every
// other shard to a parcs task via the same Start/SendAll/Recv/Shutdown
// sequence master.go uses to farm out factorization chunks, and folds
// every reply into the final sum inside AllReduceSum.
//
// cmd/p2sieve wires this against a real *parcs.Runner (via
// parcs.DefaultRunner()) when --cluster-ranks names more than one rank,
// and dispatches the worker side of the same protocol to
// ShardWorkerMain/ShardWorkerMainWide when started with --shard-worker;
// see cmd/p2sieve/main.go for both ends of the wiring this package only
// describes the protocol for.
type ParcsGroup struct {
	runner  Starter
	size    int
	x       int128.Int128 // stored wide so one Group serves both the narrow and wide entry points
	y       int64
	threads int
}

// NewParcsGroup wraps a Starter (a *parcs.Runner in production, a fake in
// tests) for a group of the given size, computing P2(x, y) with the
// given per-rank thread count. size < 1 is treated as 1 (equivalent to
// Local). x is accepted as an int128.Int128 so the same Group value
// works for both DistributedP2 and DistributedP2Wide; NewParcsGroupInt64
// is the narrow-x convenience form.
func NewParcsGroup(runner Starter, size int, x int128.Int128, y int64, threads int) *ParcsGroup {
	if size < 1 {
		size = 1
	}
	return &ParcsGroup{runner: runner, size: size, x: x, y: y, threads: threads}
}

// NewParcsGroupInt64 is NewParcsGroup for a plain int64 x.
func NewParcsGroupInt64(runner Starter, size int, x, y int64, threads int) *ParcsGroup {
	return NewParcsGroup(runner, size, int128.FromInt64(x), y, threads)
}

func (g *ParcsGroup) Rank() int { return 0 }
func (g *ParcsGroup) Size() int { return g.size }

// AllReduceSum takes rank 0's own (already computed) shard sum, farms
// every other shard out to a parcs task, and returns the grand total.
// Only rank 0 ever calls this, since every other "rank" in this
// implementation is a short-lived remote task rather than a standing
// peer process -- unlike a true MPI allreduce, the collective is
// entirely master-side.
func (g *ParcsGroup) AllReduceSum(local int64) int64 {
	if g.size <= 1 {
		return local
	}

	z := g.x.QuoInt64(max64(g.y, 1))
	shards := Shards(z, g.size)
	runID := uuid.NewString()

	total := local
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for i := 1; i < len(shards); i++ {
		wg.Add(1)
		go func(shard Shard) {
			defer wg.Done()
			sum, err := g.dispatchShard(runID, shard)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			total += sum
		}(shards[i])
	}
	wg.Wait()

	if firstErr != nil {
		panic(fmt.Errorf("cluster: shard dispatch failed: %w", firstErr))
	}
	return total
}

// AllReduceSumWide is AllReduceSum for the 128-bit accumulator path,
// used by DistributedP2Wide. The dispatch protocol is identical; only
// the reply's payload width differs.
func (g *ParcsGroup) AllReduceSumWide(local int128.Int128) int128.Int128 {
	if g.size <= 1 {
		return local
	}

	z := g.x.QuoInt64(max64(g.y, 1))
	shards := Shards(z, g.size)
	runID := uuid.NewString()

	total := local
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for i := 1; i < len(shards); i++ {
		wg.Add(1)
		go func(shard Shard) {
			defer wg.Done()
			sum, err := g.dispatchShardWide(runID, shard)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			total = total.Add(sum)
		}(shards[i])
	}
	wg.Wait()

	if firstErr != nil {
		panic(fmt.Errorf("cluster: shard dispatch failed: %w", firstErr))
	}
	return total
}

func (g *ParcsGroup) dispatchShardWide(runID string, shard Shard) (int128.Int128, error) {
	task, err := g.runner.Start(WorkerImage)
	if err != nil {
		return int128.Int128{}, fmt.Errorf("starting shard task: %w", err)
	}
	defer task.Shutdown()

	xHi, xLo := g.x.Parts()
	if err := task.SendAll(runID, xHi, xLo, g.y, shard.Low, shard.High, g.threads); err != nil {
		return int128.Int128{}, fmt.Errorf("sending shard request: %w", err)
	}

	var reply shardReplyWide
	if err := task.Recv(&reply); err != nil {
		return int128.Int128{}, fmt.Errorf("receiving shard reply: %w", err)
	}
	return int128.FromParts(reply.SumHi, reply.SumLo), nil
}

func (g *ParcsGroup) dispatchShard(runID string, shard Shard) (int64, error) {
	task, err := g.runner.Start(WorkerImage)
	if err != nil {
		return 0, fmt.Errorf("starting shard task: %w", err)
	}
	defer task.Shutdown()

	req := shardRequest{RunID: runID, X: g.x.QuoInt64(1), Y: g.y, Low: shard.Low, High: shard.High, Threads: g.threads}
	if err := task.SendAll(req.RunID, req.X, req.Y, req.Low, req.High, req.Threads); err != nil {
		return 0, fmt.Errorf("sending shard request: %w", err)
	}

	var reply shardReply
	if err := task.Recv(&reply); err != nil {
		return 0, fmt.Errorf("receiving shard reply: %w", err)
	}
	return reply.Sum, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ShardCompute runs one [low, high) shard of the outer sweep and returns
// its contribution to the P2 sum, the same shape Worker/runRounds in
// internal/p2 already implement -- ShardWorkerMain takes this in rather
// than depending on internal/p2 directly, so cluster has no import cycle
// back to the package that uses it.
type ShardCompute func(x, y, low, high int64, threads int) int64

// ShardWorkerMain is the body a WorkerImage binary runs in --shard-worker
// mode: receive one shardRequest, compute it, and send back a
// shardReply. Symmetric with dispatchShard's SendAll/Recv pair above; see
// the Responder doc comment for why this side of the protocol is
// inferred rather than grounded on an observed worker-side file.
func ShardWorkerMain(runner Responder, compute ShardCompute) error {
	var req shardRequest
	if err := runner.RecvAll(&req.RunID, &req.X, &req.Y, &req.Low, &req.High, &req.Threads); err != nil {
		return fmt.Errorf("receiving shard request: %w", err)
	}

	sum := compute(req.X, req.Y, req.Low, req.High, req.Threads)

	if err := runner.Send(shardReply{Sum: sum}); err != nil {
		return fmt.Errorf("sending shard reply: %w", err)
	}
	return nil
}

// ShardComputeWide is ShardCompute's wide-x counterpart.
type ShardComputeWide func(x int128.Int128, y, low, high int64, threads int) int128.Int128

// ShardWorkerMainWide is ShardWorkerMain for the wide accumulator path.
func ShardWorkerMainWide(runner Responder, compute ShardComputeWide) error {
	var runID string
	var xHi int64
	var xLo uint64
	var y, low, high int64
	var threads int
	if err := runner.RecvAll(&runID, &xHi, &xLo, &y, &low, &high, &threads); err != nil {
		return fmt.Errorf("receiving shard request: %w", err)
	}

	sum := compute(int128.FromParts(xHi, xLo), y, low, high, threads)
	hi, lo := sum.Parts()

	if err := runner.Send(shardReplyWide{SumHi: hi, SumLo: lo}); err != nil {
		return fmt.Errorf("sending shard reply: %w", err)
	}
	return nil
}
