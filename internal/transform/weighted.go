package transform

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"strconv"

	"github.com/collabgraph/collabgraph/internal/errors"
)

// Pair is an unordered pair of author ids stored with A <= B.
type Pair struct {
	A, B string
}

// NewPair returns the pair {a, b}.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// PairCounts counts edges per unordered author pair.
type PairCounts map[Pair]uint64

// Add counts one edge between a and b.
func (c PairCounts) Add(a, b string) {
	c[NewPair(a, b)]++
}

// Merge sums other into c.
func (c PairCounts) Merge(other PairCounts) {
	for p, n := range other {
		c[p] += n
	}
}

// WeightedEdges is the result of aggregating an edge list.
type WeightedEdges struct {
	Counts  PairCounts
	Lines   int64
	Skipped int64
}

// CountPairs reads `<year>,<work-id>,<A>,<B>` lines from r and counts each
// unordered pair. Lines with fewer than four fields are skipped.
func CountPairs(r io.Reader) (WeightedEdges, error) {
	res := WeightedEdges{Counts: make(PairCounts)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res.Lines++

		fields := bytes.SplitN(line, []byte{','}, 4)
		if len(fields) < 4 {
			res.Skipped++
			continue
		}
		res.Counts.Add(string(fields[2]), string(bytes.TrimSuffix(fields[3], []byte{'\r'})))
	}
	if err := sc.Err(); err != nil {
		return res, errors.IO("read", "edge list", err)
	}
	return res, nil
}

// WriteTo writes one `<A>,<B>,<count>` line per pair ordered by (A, B).
func (c PairCounts) WriteTo(w io.Writer) (int64, error) {
	pairs := make([]Pair, 0, len(c))
	for p := range c {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	bw := bufio.NewWriter(w)
	var written int64
	var line []byte
	for _, p := range pairs {
		line = line[:0]
		line = append(line, p.A...)
		line = append(line, ',')
		line = append(line, p.B...)
		line = append(line, ',')
		line = strconv.AppendUint(line, c[p], 10)
		line = append(line, '\n')
		n, err := bw.Write(line)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
