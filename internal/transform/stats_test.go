package transform

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/pkg/testutils"
)

func TestStatsSingleWork(t *testing.T) {
	s := NewStats()
	require.NoError(t, s.AddLine([]byte(w1)))

	require.Equal(t, map[uint64]uint64{2020: 1}, s.PapersPerYear)
	require.Equal(t, map[string]uint64{"A1": 1, "A2": 1}, s.PapersPerAuthor)
	require.Equal(t, map[uint64]uint64{2: 1}, s.PaperAuthorCount)
	require.Equal(t, map[string]uint64{"AI": 1}, s.PapersPerTopic)
	require.Len(t, s.AuthorsPerYear[2020], 2)
	require.Zero(t, s.Skipped)
}

func TestStatsCountsAuthorshipsWithoutID(t *testing.T) {
	s := NewStats()
	require.NoError(t, s.AddLine([]byte(`{"id":"W1","publication_year":2020,`+
		`"authorships":[{"author":{"id":"A1"}},{"author":{}},{"institutions":[]}],"concepts":[]}`)))

	require.Equal(t, map[uint64]uint64{3: 1}, s.PaperAuthorCount)
	require.Equal(t, map[string]uint64{"A1": 1}, s.PapersPerAuthor)
}

func TestStatsAuthorsPerYearIsASet(t *testing.T) {
	s := NewStats()
	require.NoError(t, s.AddLine([]byte(testutils.WorkLine("W1", 2020, []string{"A1", "A2"}, nil))))
	require.NoError(t, s.AddLine([]byte(testutils.WorkLine("W2", 2020, []string{"A1"}, nil))))
	require.NoError(t, s.AddLine([]byte(testutils.WorkLine("W3", 2021, []string{"A1"}, nil))))

	require.Len(t, s.AuthorsPerYear[2020], 2)
	require.Len(t, s.AuthorsPerYear[2021], 1)
	require.Equal(t, uint64(3), s.PapersPerAuthor["A1"])
}

func TestStatsSkipsIncompleteWorks(t *testing.T) {
	s := NewStats()
	require.ErrorIs(t, s.AddLine([]byte(`{"id":"W1","publication_year":2020,"concepts":[]}`)), errors.ErrMissingField)
	require.ErrorIs(t, s.AddLine([]byte(`{"id":`)), errors.ErrMalformedRecord)

	require.Equal(t, uint64(2), s.Skipped)
	require.Zero(t, s.Papers)
	require.Empty(t, s.PapersPerYear)
	require.Empty(t, s.PaperAuthorCount)
}

func TestStatsMergeIsCommutative(t *testing.T) {
	lines := []string{
		testutils.WorkLine("W1", 2020, []string{"A1", "A2"}, []string{"AI"}),
		testutils.WorkLine("W2", 2020, []string{"A1"}, []string{"AI", "Biology"}),
		testutils.WorkLine("W3", 2019, []string{"A3", "A2", "A1"}, nil),
		`{"id":"W4"}`,
	}
	build := func(lines ...string) *Stats {
		s := NewStats()
		for _, l := range lines {
			_ = s.AddLine([]byte(l))
		}
		return s
	}

	whole := build(lines...)

	ab := NewStats()
	ab.Merge(build(lines[:2]...))
	ab.Merge(build(lines[2:]...))

	ba := NewStats()
	ba.Merge(build(lines[2:]...))
	ba.Merge(build(lines[:2]...))

	require.Equal(t, whole, ab)
	require.Equal(t, whole, ba)
}

func TestStatsTables(t *testing.T) {
	s := NewStats()
	for _, l := range []string{
		testutils.WorkLine("W1", 2021, []string{"A1", "A2"}, []string{"Art, Modern"}),
		testutils.WorkLine("W2", 2020, []string{"A1"}, []string{"AI"}),
	} {
		require.NoError(t, s.AddLine([]byte(l)))
	}

	tables := s.Tables()
	require.Len(t, tables, 5)

	names := make([]string, 0, len(tables))
	for _, tb := range tables {
		names = append(names, tb.Name)
	}
	require.Equal(t, []string{PapersPerYearFile, ActiveAuthorsPerYearFile, PapersPerAuthorFile, AuthorsPerPaperFile, PapersPerTopicFile}, names)

	require.Equal(t, [][2]string{{"2020", "1"}, {"2021", "1"}}, tables[0].Rows)
	require.Equal(t, [][2]string{{"2020", "1"}, {"2021", "2"}}, tables[1].Rows)
	// A1 has two papers, A2 has one.
	require.Equal(t, [][2]string{{"1", "1"}, {"2", "1"}}, tables[2].Rows)
	require.Equal(t, [][2]string{{"1", "1"}, {"2", "1"}}, tables[3].Rows)
	require.Equal(t, [][2]string{{"AI", "1"}, {"Art  Modern", "1"}}, tables[4].Rows)

	var buf bytes.Buffer
	_, err := tables[0].WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, testutils.JoinLines("year,number-of-papers", "2020,1", "2021,1"), buf.String())
}

func TestStatsSummary(t *testing.T) {
	s := NewStats()
	require.NoError(t, s.AddLine([]byte(testutils.WorkLine("W1", 2020, []string{"A1", "A2", "A3"}, []string{"AI"}))))
	require.NoError(t, s.AddLine([]byte(testutils.WorkLine("W2", 2020, []string{"A1"}, []string{"AI"}))))

	summary := s.Summary()
	require.Equal(t, SummaryFile, summary.Name)

	papers, ok := summary.Lookup("papers")
	require.True(t, ok)
	require.Equal(t, "2", papers)

	mean, ok := summary.Lookup("authors-per-paper-mean")
	require.True(t, ok)
	require.Equal(t, "2.0000", mean)

	authors, _ := summary.Lookup("authors")
	require.Equal(t, "3", authors)

	_, ok = summary.Lookup("missing")
	require.False(t, ok)
}

func TestStatsSummaryEmpty(t *testing.T) {
	summary := NewStats().Summary()
	std, ok := summary.Lookup("papers-per-author-stddev")
	require.True(t, ok)
	require.Equal(t, "0.0000", std)
}
