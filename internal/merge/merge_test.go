package merge

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/pkg/testutils"
)

func TestParts(t *testing.T) {
	require.Equal(t, []string{"tmp/papers.part.0", "tmp/papers.part.1"}, Parts("tmp", "papers", 2))
	require.Empty(t, Parts("tmp", "papers", 0))
}

func TestConcatAppendsInOrderAndRemovesParts(t *testing.T) {
	afs := afero.NewMemMapFs()
	parts := Parts("/tmp", "papers", 3)
	testutils.MustWriteFile(t, afs, parts[0], "a\n")
	testutils.MustWriteFile(t, afs, parts[2], "c\n")
	testutils.MustWriteFile(t, afs, "/out/papers.jsonl", "stale content from a previous run\n")

	n, err := Concat(afs, "/out/papers.jsonl", parts)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, "a\nc\n", testutils.MustReadFile(t, afs, "/out/papers.jsonl"))

	for _, p := range parts {
		exists, err := afero.Exists(afs, p)
		require.NoError(t, err)
		require.False(t, exists, p)
	}
}

func TestConcatFailsOnUnwritableDestination(t *testing.T) {
	afs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := Concat(afs, "/out.jsonl", nil)
	require.ErrorIs(t, err, errors.ErrIO)
}

func TestConcatCreatesDestinationDirectory(t *testing.T) {
	afs := afero.NewOsFs()
	root := t.TempDir()
	parts := Parts(root, "papers", 1)
	testutils.MustWriteFile(t, afs, parts[0], "a\n")

	dst := filepath.Join(root, "out", "nested", "papers.jsonl")
	_, err := Concat(afs, dst, parts)
	require.NoError(t, err)
	require.Equal(t, "a\n", testutils.MustReadFile(t, afs, dst))
}

// The merged output of a line-preserving transform must not depend on the
// number of workers.
func TestConcatIsInvariantToShardCount(t *testing.T) {
	var lines []string
	for i := 0; i < 97; i++ {
		lines = append(lines, fmt.Sprintf(`{"id":"W%d"}`, i))
	}

	var digests []uint64
	for _, n := range []int{1, 2, 5, 8, 41, 48} {
		afs := afero.NewMemMapFs()
		ranges := shard.Plan(int64(len(lines)), n)
		for _, r := range ranges {
			testutils.MustWriteFile(t, afs, PartName("/tmp", "works", r.Index), testutils.JoinLines(shard.Slice(lines, r)...))
		}

		_, err := Concat(afs, "/works.jsonl", Parts("/tmp", "works", len(ranges)))
		require.NoError(t, err)

		d, err := Digest(afs, "/works.jsonl")
		require.NoError(t, err)
		digests = append(digests, d)
	}

	for _, d := range digests[1:] {
		require.Equal(t, digests[0], d)
	}
}

func TestDigest(t *testing.T) {
	afs := afero.NewMemMapFs()
	testutils.MustWriteFile(t, afs, "/a", "same")
	testutils.MustWriteFile(t, afs, "/b", "same")
	testutils.MustWriteFile(t, afs, "/c", "different")

	a, err := Digest(afs, "/a")
	require.NoError(t, err)
	b, err := Digest(afs, "/b")
	require.NoError(t, err)
	c, err := Digest(afs, "/c")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)

	_, err = Digest(afs, "/missing")
	require.ErrorIs(t, err, errors.ErrIO)
}

type counter map[string]int

func (c counter) Merge(other counter) {
	for k, v := range other {
		c[k] += v
	}
}

func TestReduce(t *testing.T) {
	parts := []counter{{"a": 1}, {"a": 2, "b": 1}, {}}

	forward := Reduce(counter{}, parts)
	backward := Reduce(counter{}, []counter{parts[2], parts[1], parts[0]})

	require.Equal(t, counter{"a": 3, "b": 1}, forward)
	require.Equal(t, forward, backward)
}
