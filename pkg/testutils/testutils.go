// Package testutils contains code that is useful in tests.
package testutils

import (
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SortedLines compares multi-line strings irrespective of line order.
var SortedLines = cmpopts.AcyclicTransformer("SortedLines", func(in string) []string {
	out := strings.Split(strings.TrimSuffix(in, "\n"), "\n")
	sort.Strings(out)
	return out
})

// Shuffle returns a shuffled copy of arr.
func Shuffle[T any](arr []T) []T {
	copied := make([]T, len(arr))
	copy(copied, arr)
	rand.Shuffle(len(copied), func(i, j int) {
		copied[i], copied[j] = copied[j], copied[i]
	})
	return copied
}

// JoinLines joins lines with a newline after each, the layout of every
// line-delimited file a run reads or writes.
func JoinLines(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// MustWriteFile writes content to name, creating parent directories.
func MustWriteFile(t require.TestingT, afs afero.Fs, name, content string) {
	require.NoError(t, afs.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, afero.WriteFile(afs, name, []byte(content), 0o644))
}

// MustWriteGzipLines writes lines as a gzip compressed snapshot shard.
func MustWriteGzipLines(t require.TestingT, afs afero.Fs, name string, lines ...string) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(JoinLines(lines...)))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	MustWriteFile(t, afs, name, buf.String())
}

// MustReadFile returns the content of name.
func MustReadFile(t require.TestingT, afs afero.Fs, name string) string {
	b, err := afero.ReadFile(afs, name)
	require.NoError(t, err)
	return string(b)
}

// WorkLine renders a minimal OpenAlex work entity.
func WorkLine(id string, year int, authors []string, topics []string) string {
	var authorships, concepts []string
	for _, a := range authors {
		authorships = append(authorships, fmt.Sprintf(`{"author":{"id":%q}}`, a))
	}
	for _, c := range topics {
		concepts = append(concepts, fmt.Sprintf(`{"display_name":%q}`, c))
	}
	return fmt.Sprintf(`{"id":%q,"publication_year":%d,"authorships":[%s],"concepts":[%s]}`,
		id, year, strings.Join(authorships, ","), strings.Join(concepts, ","))
}

// AuthorLine renders a minimal OpenAlex author entity with one affiliation per
// country, each spanning the given years.
func AuthorLine(id string, affiliations map[string][]int) string {
	countries := make([]string, 0, len(affiliations))
	for c := range affiliations {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var affs []string
	for _, c := range countries {
		years := make([]string, 0, len(affiliations[c]))
		for _, y := range affiliations[c] {
			years = append(years, fmt.Sprint(y))
		}
		affs = append(affs, fmt.Sprintf(`{"institution":{"country_code":%q},"years":[%s]}`, c, strings.Join(years, ",")))
	}
	return fmt.Sprintf(`{"id":%q,"affiliations":[%s]}`, id, strings.Join(affs, ","))
}
