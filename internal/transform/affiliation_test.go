package transform

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/pkg/testutils"
)

func TestAffiliationRecord(t *testing.T) {
	rec := make(AffiliationRecord)
	require.True(t, rec.Add("2020", "US"))
	require.False(t, rec.Add("2020", "US"))
	require.True(t, rec.Add("2020", "FR"))
	require.True(t, rec.Add("2019", "US"))

	require.True(t, rec.Has("2020", "FR"))
	require.False(t, rec.Has("2019", "FR"))
	require.True(t, rec.HasCountry("FR"))
	require.False(t, rec.HasCountry("IT"))
	require.Len(t, rec["2020"], 2)
}

func TestExtractAffiliations(t *testing.T) {
	line := testutils.AuthorLine("https://openalex.org/A1", map[string][]int{"US": {2020, 2019}, "FR": {2020}})

	verbose, err := ExtractAffiliations([]byte(line))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"https://openalex.org/A1","affs":[{"2020":"FR"},{"2020":"US"},{"2019":"US"}]}`, string(verbose))
}

func TestExtractAffiliationsDropsAuthorsWithoutHistory(t *testing.T) {
	verbose, err := ExtractAffiliations([]byte(`{"id":"A1","affiliations":[]}`))
	require.NoError(t, err)
	require.Nil(t, verbose)

	_, err = ExtractAffiliations([]byte(`{"affiliations":[]}`))
	require.ErrorIs(t, err, errors.ErrMissingField)
}

func TestAffiliationRoundTrip(t *testing.T) {
	author := record.Author{
		ID: "https://openalex.org/A1",
		Affiliations: []record.Affiliation{
			{Country: "US", Years: []string{"2020", "2019", "2020"}},
			{Country: "FR", Years: []string{"2020"}},
			{Country: record.NoInstitution, Years: []string{"2017"}},
		},
	}
	expected := AffiliationRecord{
		"2020": {"FR", "US"},
		"2019": {"US"},
		"2017": {record.NoInstitution},
	}

	verbose, err := VerboseAffiliations(author)
	require.NoError(t, err)

	c := NewCompactor()
	require.NoError(t, c.AddVerbose(verbose))

	var buf bytes.Buffer
	n, err := c.WriteCompact(&buf, "")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	index, err := LoadAuthorIndex(&buf)
	require.NoError(t, err)
	require.Len(t, index, 1)

	got := index[author.ID]
	got.Normalize()
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCompactorWriteCompact(t *testing.T) {
	c := NewCompactor()
	require.NoError(t, c.AddVerbose([]byte(`{"id":"A2","affs":[{"2021":"FR"}]}`)))
	require.NoError(t, c.AddVerbose([]byte(`{"id":"A1","affs":[{"2020":"US"},{"2020":"IT"},{"2020":"US"}]}`)))
	require.NoError(t, c.AddVerbose([]byte(`{"id":"A1","affs":[{"2019":"US"}]}`)))

	var all bytes.Buffer
	n, err := c.WriteCompact(&all, "")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, testutils.JoinLines(
		`{"id":"A1","affs":{"2019":["US"],"2020":["IT","US"]}}`,
		`{"id":"A2","affs":{"2021":["FR"]}}`,
	), all.String())

	var filtered bytes.Buffer
	n, err = c.WriteCompact(&filtered, "FR")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, strings.HasPrefix(filtered.String(), `{"id":"A2"`))
}

func TestCompactorRejectsBadLines(t *testing.T) {
	c := NewCompactor()
	require.ErrorIs(t, c.AddVerbose([]byte(`{"id":"A1","affs":[`)), errors.ErrMalformedRecord)
	require.ErrorIs(t, c.AddVerbose([]byte(`{"affs":[]}`)), errors.ErrMissingField)
	require.Zero(t, c.Len())
}

func TestCompactorMergeIsCommutative(t *testing.T) {
	build := func(lines ...string) *Compactor {
		c := NewCompactor()
		for _, l := range lines {
			require.NoError(t, c.AddVerbose([]byte(l)))
		}
		return c
	}
	render := func(c *Compactor) string {
		var buf bytes.Buffer
		_, err := c.WriteCompact(&buf, "")
		require.NoError(t, err)
		return buf.String()
	}

	left := build(`{"id":"A1","affs":[{"2020":"US"}]}`, `{"id":"A2","affs":[{"2020":"FR"}]}`)
	right := build(`{"id":"A1","affs":[{"2020":"DE"},{"2018":"US"}]}`)

	ab := build()
	ab.Merge(left)
	ab.Merge(right)

	ba := build()
	ba.Merge(right)
	ba.Merge(left)

	require.Equal(t, render(ab), render(ba))
	rec, ok := ab.Record("A1")
	require.True(t, ok)
	require.True(t, rec.Has("2020", "DE"))
	require.True(t, rec.Has("2018", "US"))
}

func TestLoadAuthorIndex(t *testing.T) {
	input := testutils.JoinLines(
		`{"id":"A1","affs":{"2020":["US"]}}`,
		``,
		`{"id":"A1","affs":{"2021":["FR"]}}`,
		`{"id":"A2","affs":{}}`,
	)

	index, err := LoadAuthorIndex(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, AuthorIndex{
		"A1": {"2020": {"US"}, "2021": {"FR"}},
		"A2": {},
	}, index)
	require.Equal(t, AuthorSet{"A1", "A2"}, index.Authors())

	_, err = LoadAuthorIndex(strings.NewReader(`{"id":"A1","affs":`))
	require.ErrorIs(t, err, errors.ErrMalformedRecord)

	_, err = LoadAuthorIndex(strings.NewReader(`{"affs":{}}`))
	require.ErrorIs(t, err, errors.ErrMalformedRecord)
}
