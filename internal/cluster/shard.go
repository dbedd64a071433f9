// Package cluster implements spec.md §4.4's distributed mode: the outer
// sweep range is split into one contiguous shard per process-group rank,
// each rank computes its shard independently (no cross-rank messaging
// during compute), and a single collective reduction at the end combines
// the partial sums.
package cluster

import "github.com/spsforks/kimwalisch-primecount/internal/int128"

// Shard is a contiguous, half-open slice [Low, High) of the P2 outer
// sweep index space [2, z), one per rank, per spec.md §4.4's static equal
// partitioning with the last shard absorbing the remainder.
type Shard struct {
	Low, High int64
}

// Shards splits [2, z) into n contiguous shards of equal width, the last
// one absorbing whatever remainder doesn't divide evenly. n < 1 is
// treated as 1.
func Shards(z int64, n int) []Shard {
	if n < 1 {
		n = 1
	}
	const lo = int64(2)

	total := z - lo
	if total < 0 {
		total = 0
	}
	width := total / int64(n)

	out := make([]Shard, n)
	for i := 0; i < n; i++ {
		low := lo + width*int64(i)
		high := low + width
		if i == n-1 && z > low {
			high = z
		}
		out[i] = Shard{Low: low, High: high}
	}
	return out
}

// Group is the process-group handle P2's distributed entry points need:
// its own rank and the group's size, plus the single collective
// operation P2 ever performs — summing one partial result per rank. Both
// a narrow and a wide reduction are exposed since the narrow path's
// partial sums fit in int64 but the wide path's do not.
type Group interface {
	Rank() int
	Size() int
	AllReduceSum(local int64) int64
	AllReduceSumWide(local int128.Int128) int128.Int128
}

// Local is the trivial single-process Group: rank 0 of 1, and the
// collective reduction is the identity since there is nothing else to
// combine with.
type Local struct{}

func (Local) Rank() int { return 0 }
func (Local) Size() int { return 1 }
func (Local) AllReduceSum(v int64) int64                     { return v }
func (Local) AllReduceSumWide(v int128.Int128) int128.Int128 { return v }
