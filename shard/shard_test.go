package shard_test

import (
	"testing"

	"github.com/nfriess-labs/gmrfsample/shard"
	"github.com/stretchr/testify/require"
)

func TestLayoutRowRangePartitionsExactly(t *testing.T) {
	cases := []struct {
		n, numShards int
	}{
		{9, 1},
		{9, 3},
		{10, 3},
		{1, 1},
		{100, 7},
	}
	for _, c := range cases {
		l := shard.Layout{N: c.n, NumShards: c.numShards}
		covered := make([]bool, c.n)
		for r := 0; r < c.numShards; r++ {
			lo, hi := l.RowRange(r)
			require.GreaterOrEqual(t, lo, 0)
			require.LessOrEqual(t, hi, c.n)
			require.LessOrEqual(t, lo, hi)
			for i := lo; i < hi; i++ {
				require.False(t, covered[i], "row %d covered by more than one shard", i)
				covered[i] = true
			}
		}
		for i, ok := range covered {
			require.True(t, ok, "row %d not covered by any shard", i)
		}
	}
}

func TestLayoutRowRangeBalancesRemainder(t *testing.T) {
	l := shard.Layout{N: 10, NumShards: 3}
	sizes := make([]int, 3)
	for r := 0; r < 3; r++ {
		lo, hi := l.RowRange(r)
		sizes[r] = hi - lo
	}
	require.Equal(t, []int{4, 3, 3}, sizes)
}

func TestOwnerOfAgreesWithRowRange(t *testing.T) {
	cases := []struct {
		n, numShards int
	}{
		{9, 1},
		{9, 3},
		{10, 3},
		{100, 7},
	}
	for _, c := range cases {
		l := shard.Layout{N: c.n, NumShards: c.numShards}
		for i := 0; i < c.n; i++ {
			owner := l.OwnerOf(i)
			lo, hi := l.RowRange(owner)
			require.True(t, i >= lo && i < hi, "OwnerOf(%d)=%d but its range [%d,%d) excludes it", i, owner, lo, hi)
		}
	}
}

// TestExchangerGatherRoundTrip exercises the Serve/Gather pair the way a
// sampler's ghost exchange does: one goroutine per shard answers requests
// against its own local backing slice, and Gather pulls arbitrary columns
// from whichever shard owns them.
func TestExchangerGatherRoundTrip(t *testing.T) {
	l := shard.Layout{N: 9, NumShards: 3}
	ex := shard.NewExchanger(3)

	local := make([][]float64, 3)
	for s := 0; s < 3; s++ {
		lo, hi := l.RowRange(s)
		local[s] = make([]float64, hi-lo)
		for i := range local[s] {
			local[s][i] = float64(lo + i)
		}
	}

	stop := make(chan struct{})
	for s := 0; s < 3; s++ {
		s := s
		lo, _ := l.RowRange(s)
		go ex.Serve(s, func(globalRow int) float64 {
			return local[s][globalRow-lo]
		}, stop)
	}
	defer close(stop)

	got := ex.Gather(0, []int{0, 2})
	require.Equal(t, []float64{0, 2}, got)

	got = ex.Gather(2, []int{6, 7, 8})
	require.Equal(t, []float64{6, 7, 8}, got)

	require.Nil(t, ex.Gather(1, nil))
}

// TestExchangerGatherConcurrentFromMultipleShards checks that many shards
// gathering from each other at once, as MCSOR's colored sweeps do, never
// deadlocks or cross-delivers a reply meant for a different requester.
func TestExchangerGatherConcurrentFromMultipleShards(t *testing.T) {
	l := shard.Layout{N: 12, NumShards: 4}
	ex := shard.NewExchanger(4)

	local := make([][]float64, 4)
	for s := 0; s < 4; s++ {
		lo, hi := l.RowRange(s)
		local[s] = make([]float64, hi-lo)
		for i := range local[s] {
			local[s][i] = float64(10*(lo+i) + 1)
		}
	}

	stop := make(chan struct{})
	for s := 0; s < 4; s++ {
		s := s
		lo, _ := l.RowRange(s)
		go ex.Serve(s, func(globalRow int) float64 {
			return local[s][globalRow-lo]
		}, stop)
	}
	defer close(stop)

	done := make(chan struct{})
	for s := 0; s < 4; s++ {
		s := s
		go func() {
			owner := (s + 1) % 4
			lo, hi := l.RowRange(owner)
			cols := make([]int, 0, hi-lo)
			for i := lo; i < hi; i++ {
				cols = append(cols, i)
			}
			got := ex.Gather(owner, cols)
			for i, c := range cols {
				require.Equal(t, float64(10*c+1), got[i])
			}
			done <- struct{}{}
		}()
	}
	for s := 0; s < 4; s++ {
		<-done
	}
}
