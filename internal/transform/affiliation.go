package transform

import (
	"bytes"
	"io"
	"slices"
	"sort"

	"github.com/segmentio/encoding/json"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/record"
)

// AffiliationRecord maps a year to the set of country codes an author was
// affiliated with in that year.
type AffiliationRecord map[string][]string

// Add records country for year. It reports whether the pair was new.
func (a AffiliationRecord) Add(year, country string) bool {
	if slices.Contains(a[year], country) {
		return false
	}
	a[year] = append(a[year], country)
	return true
}

// Has reports whether the author was affiliated with country in year.
func (a AffiliationRecord) Has(year, country string) bool {
	return slices.Contains(a[year], country)
}

// HasCountry reports whether the author was affiliated with country in any year.
func (a AffiliationRecord) HasCountry(country string) bool {
	for _, countries := range a {
		if slices.Contains(countries, country) {
			return true
		}
	}
	return false
}

// Merge adds every pair of other to a.
func (a AffiliationRecord) Merge(other AffiliationRecord) {
	for year, countries := range other {
		for _, c := range countries {
			a.Add(year, c)
		}
	}
}

// Normalize sorts the countries of every year.
func (a AffiliationRecord) Normalize() {
	for _, countries := range a {
		sort.Strings(countries)
	}
}

type verboseRecord struct {
	ID   string              `json:"id"`
	Affs []map[string]string `json:"affs"`
}

// CompactRecord is one line of the compact author file.
type CompactRecord struct {
	ID   string            `json:"id"`
	Affs AffiliationRecord `json:"affs"`
}

// VerboseAffiliations renders the extractor's intermediate line for author: one
// single-key {"<year>":"<country>"} object per observation, in source order.
// Authors without any observation yield nil and are dropped.
func VerboseAffiliations(author record.Author) ([]byte, error) {
	if author.Years() == 0 {
		return nil, nil
	}

	v := verboseRecord{ID: author.ID, Affs: make([]map[string]string, 0, author.Years())}
	for _, aff := range author.Affiliations {
		for _, year := range aff.Years {
			v.Affs = append(v.Affs, map[string]string{year: aff.Country})
		}
	}
	return json.Marshal(v)
}

// ExtractAffiliations parses an author snapshot line and renders its verbose
// affiliation line. A nil line with a nil error means the author has no
// affiliation history.
func ExtractAffiliations(line []byte) ([]byte, error) {
	author, err := record.ParseAuthor(line)
	if err != nil {
		return nil, err
	}
	return VerboseAffiliations(author)
}

// Compactor folds verbose affiliation lines into one AffiliationRecord per
// author. A Compactor is owned by a single worker; partial compactors are
// combined with Merge after all workers have returned.
type Compactor struct {
	authors map[string]AffiliationRecord
}

func NewCompactor() *Compactor {
	return &Compactor{authors: make(map[string]AffiliationRecord)}
}

// AddVerbose folds one verbose line into the compactor.
func (c *Compactor) AddVerbose(line []byte) error {
	var v verboseRecord
	if err := json.Unmarshal(line, &v); err != nil {
		return errors.Malformed("verbose affiliation line: %v", err)
	}
	if v.ID == "" {
		return errors.MissingField("id")
	}

	rec := c.record(v.ID)
	for _, obs := range v.Affs {
		for year, country := range obs {
			rec.Add(year, country)
		}
	}
	return nil
}

// Add records one observation for an author.
func (c *Compactor) Add(id, year, country string) {
	c.record(id).Add(year, country)
}

func (c *Compactor) record(id string) AffiliationRecord {
	rec, ok := c.authors[id]
	if !ok {
		rec = make(AffiliationRecord)
		c.authors[id] = rec
	}
	return rec
}

// Merge unions other into c. Merging is commutative.
func (c *Compactor) Merge(other *Compactor) {
	for id, rec := range other.authors {
		c.record(id).Merge(rec)
	}
}

// Len returns the number of authors.
func (c *Compactor) Len() int {
	return len(c.authors)
}

// Record returns the affiliations of id.
func (c *Compactor) Record(id string) (AffiliationRecord, bool) {
	rec, ok := c.authors[id]
	return rec, ok
}

// WriteCompact writes one compact line per author ordered by id. When country is not
// empty only authors affiliated with it in some year are written. It returns
// the number of authors written.
func (c *Compactor) WriteCompact(w io.Writer, country string) (int, error) {
	ids := make([]string, 0, len(c.authors))
	for id, rec := range c.authors {
		if country != "" && !rec.HasCountry(country) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		rec := c.authors[id]
		rec.Normalize()

		buf.Reset()
		if err := enc.Encode(CompactRecord{ID: id, Affs: rec}); err != nil {
			return 0, err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
