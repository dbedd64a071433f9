package p2

import (
	"github.com/spsforks/kimwalisch-primecount/internal/cluster"
	"github.com/spsforks/kimwalisch-primecount/internal/int128"
	"github.com/spsforks/kimwalisch-primecount/internal/oracle"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// DistributedP2Wide is DistributedP2 generalized to a 128-bit x, using
// group.AllReduceSumWide for the collective since each rank's local sum
// can itself exceed int64.
func DistributedP2Wide(x int128.Int128, y int64, threads int, group cluster.Group, opts Options) int128.Int128 {
	if x.Less(int128.FromInt64(4)) {
		return int128.FromInt64(0)
	}

	svc := primes.NewService()
	ora := oracle.New(svc)

	a := ora.PiSimple(y)
	b := ora.PiSimple(int128.Isqrt(x))
	if a >= b {
		return int128.FromInt64(0)
	}

	z := x.QuoInt64(max64(y, 1))
	shards := cluster.Shards(z, group.Size())
	my := shards[group.Rank()]

	local := shardSumWide(svc, x, y, my.Low, my.High, threads, opts)
	total := group.AllReduceSumWide(local)

	return CombinatorialTermWide(a, b).Add(total)
}

// ShardSumWide is ShardSum generalized to a 128-bit x, the function a
// remote wide shard worker dispatched via cluster.ShardWorkerMainWide
// needs to compute.
func ShardSumWide(x int128.Int128, y, low, high int64, threads int, opts Options) int128.Int128 {
	svc := primes.NewService()
	return shardSumWide(svc, x, y, low, high, threads, opts)
}

func shardSumWide(svc *primes.Service, x int128.Int128, y, low, high int64, threads int, opts Options) int128.Int128 {
	ora := oracle.New(svc)
	pixLow0 := int64(0)
	if low > 2 {
		pixLow0 = ora.PiSimple(low - 1)
	}
	return runRoundsWide(svc, x, y, high, low, pixLow0, threads, opts)
}
