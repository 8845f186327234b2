package shard

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanPartitionsExhaustivelyAndDisjointly(t *testing.T) {
	for total := int64(1); total <= 64; total++ {
		for n := 1; n <= int(total); n++ {
			ranges := Plan(total, n)
			require.Len(t, ranges, n)

			var next int64
			for i, r := range ranges {
				require.Equal(t, i, r.Index)
				require.Equal(t, next, r.Start, "total=%d n=%d", total, n)
				require.Positive(t, r.Len(), "total=%d n=%d", total, n)
				next = r.End
			}
			require.Equal(t, total, ranges[n-1].End)
		}
	}
}

func TestPlanLastShardAbsorbsRemainder(t *testing.T) {
	ranges := Plan(10, 3)

	require.Equal(t, []Range{
		{Index: 0, Start: 0, End: 3},
		{Index: 1, Start: 3, End: 6},
		{Index: 2, Start: 6, End: 10},
	}, ranges)
	require.True(t, ranges[2].Last(3))
	require.False(t, ranges[1].Last(3))
}

func TestPlanWorkerCountAboveFortyOne(t *testing.T) {
	ranges := Plan(1000, 48)

	require.Len(t, ranges, 48)
	require.Equal(t, int64(1000), ranges[47].End)
	require.Equal(t, int64(20), ranges[40].Len())
}

func TestPlanClampsWorkersToUnits(t *testing.T) {
	ranges := Plan(3, 8)

	require.Len(t, ranges, 3)
	for _, r := range ranges {
		require.Equal(t, int64(1), r.Len())
	}
}

func TestPlanEmpty(t *testing.T) {
	require.Empty(t, Plan(0, 4))
}

func TestWorkers(t *testing.T) {
	var testcases = map[string]struct {
		requested int
		total     int64
		expected  int
	}{
		`no_units`:        {requested: 4, total: 0, expected: 0},
		`clamped`:         {requested: 16, total: 5, expected: 5},
		`as_requested`:    {requested: 4, total: 100, expected: 4},
		`single_unit`:     {requested: 1, total: 1, expected: 1},
		`default_cpus`:    {requested: 0, total: 1 << 40, expected: runtime.NumCPU()},
		`negative_is_cpu`: {requested: -3, total: 1 << 40, expected: runtime.NumCPU()},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, Workers(tc.requested, tc.total))
		})
	}
}

func TestSlice(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	var got []string
	for _, r := range Plan(int64(len(files)), 2) {
		got = append(got, Slice(files, r)...)
	}
	require.Equal(t, files, got)
	require.Equal(t, []string{"c", "d", "e"}, Slice(files, Range{Index: 1, Start: 2, End: 5}))
}
