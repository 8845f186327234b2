package transform

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/collabgraph/collabgraph/internal/record"
)

// Output file names of the statistics tables.
const (
	PapersPerYearFile        = "PaperPerYearDistrib.csv"
	ActiveAuthorsPerYearFile = "ActiveAuthorPerYearDistribution.csv"
	PapersPerAuthorFile      = "PapersPerAuthorDistribution.csv"
	AuthorsPerPaperFile      = "AuthorsPerPaperDistribution.csv"
	PapersPerTopicFile       = "PapersPerTopicDistribution.csv"
	SummaryFile              = "SummaryStatistics.csv"
)

// Stats holds the corpus accumulators of one worker. It is not safe for
// concurrent use; per-worker instances are combined with Merge once every worker
// has returned.
type Stats struct {
	PapersPerYear    map[uint64]uint64
	AuthorsPerYear   map[uint64]map[string]struct{}
	PapersPerAuthor  map[string]uint64
	PaperAuthorCount map[uint64]uint64
	PapersPerTopic   map[string]uint64

	Papers  uint64
	Skipped uint64
}

func NewStats() *Stats {
	return &Stats{
		PapersPerYear:    make(map[uint64]uint64),
		AuthorsPerYear:   make(map[uint64]map[string]struct{}),
		PapersPerAuthor:  make(map[string]uint64),
		PaperAuthorCount: make(map[uint64]uint64),
		PapersPerTopic:   make(map[string]uint64),
	}
}

// Add accounts for one work.
func (s *Stats) Add(w record.Work) {
	s.Papers++
	s.PapersPerYear[w.Year]++

	active, ok := s.AuthorsPerYear[w.Year]
	if !ok {
		active = make(map[string]struct{})
		s.AuthorsPerYear[w.Year] = active
	}
	for _, a := range w.Authors {
		active[a] = struct{}{}
		s.PapersPerAuthor[a]++
	}
	s.PaperAuthorCount[uint64(w.Authorships)]++

	for _, t := range w.Topics {
		s.PapersPerTopic[t]++
	}
}

// AddLine parses line and accounts for it. A line that cannot be parsed is
// counted as skipped and its error returned.
func (s *Stats) AddLine(line []byte) error {
	w, err := record.ParseWork(line)
	if err != nil {
		s.Skipped++
		return err
	}
	s.Add(w)
	return nil
}

// Merge folds other into s: counters sum and sets union.
func (s *Stats) Merge(other *Stats) {
	for k, v := range other.PapersPerYear {
		s.PapersPerYear[k] += v
	}
	for year, authors := range other.AuthorsPerYear {
		active, ok := s.AuthorsPerYear[year]
		if !ok {
			active = make(map[string]struct{}, len(authors))
			s.AuthorsPerYear[year] = active
		}
		for a := range authors {
			active[a] = struct{}{}
		}
	}
	for k, v := range other.PapersPerAuthor {
		s.PapersPerAuthor[k] += v
	}
	for k, v := range other.PaperAuthorCount {
		s.PaperAuthorCount[k] += v
	}
	for k, v := range other.PapersPerTopic {
		s.PapersPerTopic[k] += v
	}
	s.Papers += other.Papers
	s.Skipped += other.Skipped
}

// PapersPerAuthorHistogram maps N to the number of authors with N papers.
func (s *Stats) PapersPerAuthorHistogram() map[uint64]uint64 {
	hist := make(map[uint64]uint64)
	for _, n := range s.PapersPerAuthor {
		hist[n]++
	}
	return hist
}

// Tables renders the five distribution tables with rows sorted by key.
func (s *Stats) Tables() []Table {
	activeAuthors := make(map[uint64]uint64, len(s.AuthorsPerYear))
	for year, authors := range s.AuthorsPerYear {
		activeAuthors[year] = uint64(len(authors))
	}

	topics := make(map[string]uint64, len(s.PapersPerTopic))
	for t, n := range s.PapersPerTopic {
		topics[strings.ReplaceAll(t, ",", " ")] += n
	}

	return []Table{
		uintTable(PapersPerYearFile, "year", "number-of-papers", s.PapersPerYear),
		uintTable(ActiveAuthorsPerYearFile, "year", "active-author-count", activeAuthors),
		uintTable(PapersPerAuthorFile, "authors-with-N-papers", "count", s.PapersPerAuthorHistogram()),
		uintTable(AuthorsPerPaperFile, "papers-with-N-authors", "count", s.PaperAuthorCount),
		stringTable(PapersPerTopicFile, "topic", "count", topics),
	}
}

// Summary renders corpus wide totals together with the weighted mean and
// standard deviation of authors per paper and papers per author.
func (s *Stats) Summary() Table {
	authorsMean, authorsStd := weightedMeanStdDev(s.PaperAuthorCount)
	papersMean, papersStd := weightedMeanStdDev(s.PapersPerAuthorHistogram())

	return Table{
		Name:   SummaryFile,
		Header: [2]string{"metric", "value"},
		Rows: [][2]string{
			{"papers", strconv.FormatUint(s.Papers, 10)},
			{"skipped", strconv.FormatUint(s.Skipped, 10)},
			{"authors", strconv.Itoa(len(s.PapersPerAuthor))},
			{"topics", strconv.Itoa(len(s.PapersPerTopic))},
			{"years", strconv.Itoa(len(s.PapersPerYear))},
			{"authors-per-paper-mean", formatFloat(authorsMean)},
			{"authors-per-paper-stddev", formatFloat(authorsStd)},
			{"papers-per-author-mean", formatFloat(papersMean)},
			{"papers-per-author-stddev", formatFloat(papersStd)},
		},
	}
}

func weightedMeanStdDev(hist map[uint64]uint64) (float64, float64) {
	if len(hist) == 0 {
		return 0, 0
	}
	x := make([]float64, 0, len(hist))
	weights := make([]float64, 0, len(hist))
	for k, n := range hist {
		x = append(x, float64(k))
		weights = append(weights, float64(n))
	}
	mean, std := stat.MeanStdDev(x, weights)
	if math.IsNaN(std) || math.IsInf(std, 0) {
		// A single observation has no deviation.
		std = 0
	}
	return mean, std
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func uintTable(name, key, value string, m map[uint64]uint64) Table {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	t := Table{Name: name, Header: [2]string{key, value}, Rows: make([][2]string, 0, len(keys))}
	for _, k := range keys {
		t.Rows = append(t.Rows, [2]string{strconv.FormatUint(k, 10), strconv.FormatUint(m[k], 10)})
	}
	return t
}

func stringTable(name, key, value string, m map[string]uint64) Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := Table{Name: name, Header: [2]string{key, value}, Rows: make([][2]string, 0, len(keys))}
	for _, k := range keys {
		t.Rows = append(t.Rows, [2]string{k, strconv.FormatUint(m[k], 10)})
	}
	return t
}
