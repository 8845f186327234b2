package transform

import (
	"strconv"
	"strings"

	"github.com/collabgraph/collabgraph/internal/record"
)

// Edge is one co-authorship of a work. A and B are short author ids.
type Edge struct {
	Year   uint64
	WorkID string
	A      string
	B      string
}

// AppendCSV appends the `<year>,<work-id>,<A>,<B>` rendering of e, without a
// line terminator.
func (e Edge) AppendCSV(dst []byte) []byte {
	dst = strconv.AppendUint(dst, e.Year, 10)
	dst = append(dst, ',')
	dst = append(dst, e.WorkID...)
	dst = append(dst, ',')
	dst = append(dst, e.A...)
	dst = append(dst, ',')
	dst = append(dst, e.B...)
	return dst
}

func (e Edge) String() string {
	return string(e.AppendCSV(nil))
}

// GenerateEdges returns one edge per unordered pair of distinct authors of w, in
// authorship order. Repeated author ids are collapsed first. A work with a single
// distinct author yields one self-pair so the author's activity is kept; a work
// without authors yields nothing. Work and author ids lose their OpenAlex URL
// prefix.
func GenerateEdges(w record.Work) []Edge {
	authors := make([]string, 0, len(w.Authors))
	seen := make(map[string]struct{}, len(w.Authors))
	for _, a := range w.Authors {
		short := record.ShortID(a)
		if _, ok := seen[short]; ok {
			continue
		}
		seen[short] = struct{}{}
		authors = append(authors, short)
	}

	workID := record.ShortID(w.ID)
	switch len(authors) {
	case 0:
		return nil
	case 1:
		return []Edge{{Year: w.Year, WorkID: workID, A: authors[0], B: authors[0]}}
	}

	edges := make([]Edge, 0, len(authors)*(len(authors)-1)/2)
	for i := 0; i < len(authors); i++ {
		for j := i + 1; j < len(authors); j++ {
			edges = append(edges, Edge{Year: w.Year, WorkID: workID, A: authors[i], B: authors[j]})
		}
	}
	return edges
}

// AppendEdges renders edges as newline-terminated CSV lines.
func AppendEdges(dst []byte, edges []Edge) []byte {
	for _, e := range edges {
		dst = e.AppendCSV(dst)
		dst = append(dst, '\n')
	}
	return dst
}

// Metadata returns the `<work-id>,<topic;topic;...>` side-channel line for w,
// newline-terminated.
func Metadata(w record.Work) []byte {
	id := record.ShortID(w.ID)
	line := make([]byte, 0, len(id)+16*len(w.Topics))
	line = append(line, id...)
	line = append(line, ',')
	line = append(line, strings.Join(w.Topics, ";")...)
	return append(line, '\n')
}
