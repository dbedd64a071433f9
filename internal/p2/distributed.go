package p2

import (
	"github.com/spsforks/kimwalisch-primecount/internal/cluster"
	"github.com/spsforks/kimwalisch-primecount/internal/oracle"
	"github.com/spsforks/kimwalisch-primecount/internal/pmath"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// DistributedP2 implements spec.md §4.4's distributed mode: [2, z) is
// split into group.Size() contiguous shards, rank group.Rank() computes
// its own shard (independently re-deriving its own pi(low-1) prefix via
// the oracle rather than receiving it from another rank), and
// group.AllReduceSum folds every rank's contribution into the final sum.
// The combinatorial seed term is a pure function of a and b, so every
// rank adds it locally after the reduction rather than it being part of
// the reduced quantity.
func DistributedP2(x, y int64, threads int, group cluster.Group, opts Options) int64 {
	if x < 4 {
		return 0
	}

	svc := primes.NewService()
	ora := oracle.New(svc)

	a := ora.PiSimple(y)
	b := ora.PiSimple(pmath.Isqrt(x))
	if a >= b {
		return 0
	}

	z := x / max64(y, 1)
	shards := cluster.Shards(z, group.Size())
	my := shards[group.Rank()]

	local := shardSum(svc, x, y, my.Low, my.High, threads, opts)
	total := group.AllReduceSum(local)

	return combinatorialTerm(a, b) + total
}

// ShardSum computes one rank's contribution to DistributedP2 -- the
// round loop over [low, high) plus its own independently re-derived
// pi(low-1) prefix -- without the combinatorial seed term or the
// cross-rank reduction. This is exactly what a remote shard worker
// dispatched via cluster.ShardWorkerMain needs to compute (see
// cmd/p2sieve's worker-mode entry point), so it is exported rather than
// folded invisibly into DistributedP2.
func ShardSum(x, y, low, high int64, threads int, opts Options) int64 {
	svc := primes.NewService()
	return shardSum(svc, x, y, low, high, threads, opts)
}

func shardSum(svc *primes.Service, x, y, low, high int64, threads int, opts Options) int64 {
	ora := oracle.New(svc)
	pixLow0 := int64(0)
	if low > 2 {
		pixLow0 = ora.PiSimple(low - 1)
	}
	return runRounds(svc, x, y, high, low, pixLow0, threads, opts)
}
