package testutils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSortedLines(t *testing.T) {
	require.Empty(t, cmp.Diff("a\nb\nc\n", "c\na\nb\n", SortedLines))
	require.Empty(t, cmp.Diff("a\n", "a", SortedLines))
	require.NotEmpty(t, cmp.Diff("a\nb\n", "a\nc\n", SortedLines))
}

func TestJoinLines(t *testing.T) {
	require.Equal(t, "x\ny\n", JoinLines("x", "y"))
	require.Empty(t, JoinLines())
}
