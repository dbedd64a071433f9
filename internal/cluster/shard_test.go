package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spsforks/kimwalisch-primecount/internal/int128"
)

func TestShardsPartitionRangeContiguously(t *testing.T) {
	shards := Shards(100, 4)
	require.Len(t, shards, 4)

	require.Equal(t, int64(2), shards[0].Low)
	for i := 1; i < len(shards); i++ {
		require.Equal(t, shards[i-1].High, shards[i].Low, "shard %d must start where shard %d ends", i, i-1)
	}
	require.Equal(t, int64(100), shards[len(shards)-1].High)
}

func TestShardsLastAbsorbsRemainder(t *testing.T) {
	shards := Shards(23, 3) // total = 21, width = 7, divides evenly here
	require.Equal(t, int64(23), shards[2].High)

	shards = Shards(22, 3) // total = 20, width = 6, remainder goes to the last shard
	require.Equal(t, int64(6), shards[0].High-shards[0].Low)
	require.Equal(t, int64(22), shards[2].High)
}

func TestShardsTreatsNonPositiveCountAsOne(t *testing.T) {
	shards := Shards(50, 0)
	require.Len(t, shards, 1)
	require.Equal(t, int64(2), shards[0].Low)
	require.Equal(t, int64(50), shards[0].High)
}

func TestShardsHandlesZBelowLow(t *testing.T) {
	shards := Shards(1, 3)
	require.Len(t, shards, 3)
	for _, s := range shards {
		require.LessOrEqual(t, s.Low, s.High)
	}
}

func TestLocalGroupIsIdentityReduction(t *testing.T) {
	var g Local
	require.Equal(t, 0, g.Rank())
	require.Equal(t, 1, g.Size())
	require.Equal(t, int64(42), g.AllReduceSum(42))
	require.True(t, g.AllReduceSumWide(int128.FromInt64(42)).Equal(int128.FromInt64(42)))
}
