package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spsforks/kimwalisch-primecount/internal/int128"
)

// fakeTask hands a dispatched shard straight to an in-process range-sum
// function instead of a real parcs task, standing in for whatever a real
// ShardWorkerMain/ShardWorkerMainWide on the other end would compute.
type fakeTask struct {
	wide        bool
	compute     func(low, high int64) int64
	computeWide func(low, high int64) int128.Int128
	reply       interface{}
}

func (t *fakeTask) SendAll(args ...interface{}) error {
	if t.wide {
		// runID, xHi, xLo, y, low, high, threads
		low := args[4].(int64)
		high := args[5].(int64)
		sum := t.computeWide(low, high)
		hi, lo := sum.Parts()
		t.reply = shardReplyWide{SumHi: hi, SumLo: lo}
		return nil
	}
	// runID, x, y, low, high, threads
	low := args[3].(int64)
	high := args[4].(int64)
	t.reply = shardReply{Sum: t.compute(low, high)}
	return nil
}

func (t *fakeTask) Recv(v interface{}) error {
	switch out := v.(type) {
	case *shardReply:
		*out = t.reply.(shardReply)
	case *shardReplyWide:
		*out = t.reply.(shardReplyWide)
	default:
		return fmt.Errorf("fakeTask: unsupported Recv target %T", v)
	}
	return nil
}

func (t *fakeTask) Shutdown() {}

// fakeStarter is the Starter a test drives ParcsGroup with, in place of
// a real parcs.Runner.
type fakeStarter struct {
	wide        bool
	compute     func(low, high int64) int64
	computeWide func(low, high int64) int128.Int128
}

func (s fakeStarter) Start(image string) (Task, error) {
	if image != WorkerImage {
		return nil, fmt.Errorf("unexpected worker image %q", image)
	}
	return &fakeTask{wide: s.wide, compute: s.compute, computeWide: s.computeWide}, nil
}

func sumRange(low, high int64) int64 {
	var s int64
	for i := low; i < high; i++ {
		s += i
	}
	return s
}

func sumRangeWide(low, high int64) int128.Int128 {
	s := int128.FromInt64(0)
	for i := low; i < high; i++ {
		s = s.Add(int128.FromInt64(i))
	}
	return s
}

func TestParcsGroupAllReduceSumDispatchesRemainingShards(t *testing.T) {
	g := NewParcsGroup(fakeStarter{compute: sumRange}, 4, int128.FromInt64(100), 1, 2)

	// Rank 0's own shard sum is computed by the caller, not by
	// AllReduceSum; pass it in as if it had already been derived.
	z := int64(100)
	shards := Shards(z, 4)
	local := sumRange(shards[0].Low, shards[0].High)

	total := g.AllReduceSum(local)

	want := local
	for i := 1; i < len(shards); i++ {
		want += sumRange(shards[i].Low, shards[i].High)
	}
	require.Equal(t, want, total)
}

func TestParcsGroupAllReduceSumWideDispatchesRemainingShards(t *testing.T) {
	g := NewParcsGroup(fakeStarter{wide: true, computeWide: sumRangeWide}, 3, int128.FromInt64(60), 1, 2)

	z := int64(60)
	shards := Shards(z, 3)
	local := sumRangeWide(shards[0].Low, shards[0].High)

	total := g.AllReduceSumWide(local)

	want := local
	for i := 1; i < len(shards); i++ {
		want = want.Add(sumRangeWide(shards[i].Low, shards[i].High))
	}
	require.True(t, want.Equal(total))
}

func TestParcsGroupSizeOneIsIdentity(t *testing.T) {
	g := NewParcsGroup(fakeStarter{}, 1, int128.FromInt64(100), 1, 2)
	require.Equal(t, int64(42), g.AllReduceSum(42))
	require.True(t, g.AllReduceSumWide(int128.FromInt64(42)).Equal(int128.FromInt64(42)))
}

// fakeResponder drives ShardWorkerMain/ShardWorkerMainWide with
// canned RecvAll values and captures whatever Send is called with,
// standing in for a real parcs task-side connection.
type fakeResponder struct {
	values []interface{}
	sent   interface{}
}

func (r *fakeResponder) RecvAll(args ...interface{}) error {
	if len(args) != len(r.values) {
		return fmt.Errorf("fakeResponder: RecvAll got %d args, want %d", len(args), len(r.values))
	}
	for i, a := range args {
		switch ptr := a.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *int64:
			*ptr = r.values[i].(int64)
		case *uint64:
			*ptr = r.values[i].(uint64)
		case *int:
			*ptr = r.values[i].(int)
		default:
			return fmt.Errorf("fakeResponder: unsupported RecvAll arg %T", a)
		}
	}
	return nil
}

func (r *fakeResponder) Send(v interface{}) error {
	r.sent = v
	return nil
}

func TestShardWorkerMainRespondsWithComputedSum(t *testing.T) {
	r := &fakeResponder{values: []interface{}{"run-1", int64(100), int64(1), int64(10), int64(20), 2}}

	err := ShardWorkerMain(r, func(x, y, low, high int64, threads int) int64 {
		return x + y + low + high + int64(threads)
	})
	require.NoError(t, err)
	require.Equal(t, shardReply{Sum: 100 + 1 + 10 + 20 + 2}, r.sent)
}

func TestShardWorkerMainWideRespondsWithComputedSum(t *testing.T) {
	xHi, xLo := int128.FromInt64(100).Parts()
	r := &fakeResponder{values: []interface{}{"run-1", xHi, xLo, int64(1), int64(10), int64(20), 2}}

	err := ShardWorkerMainWide(r, func(x int128.Int128, y, low, high int64, threads int) int128.Int128 {
		return x.Add(int128.FromInt64(y + low + high + int64(threads)))
	})
	require.NoError(t, err)

	want := int128.FromInt64(100 + 1 + 10 + 20 + 2)
	wantHi, wantLo := want.Parts()
	require.Equal(t, shardReplyWide{SumHi: wantHi, SumLo: wantLo}, r.sent)
}
