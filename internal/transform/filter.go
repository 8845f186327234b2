package transform

import (
	"slices"
	"strconv"

	"github.com/collabgraph/collabgraph/internal/record"
)

// MembershipFilter keeps works written by at least one author of a set.
type MembershipFilter struct {
	Authors AuthorSet
}

// Keep reports whether any of the work's authors is in the set.
func (f MembershipFilter) Keep(authorIDs []string) bool {
	return f.Authors.ContainsAny(authorIDs)
}

// KeepLine decodes only the authorships of line and applies Keep.
func (f MembershipFilter) KeepLine(line []byte) (bool, error) {
	ids, err := record.AuthorIDs(line)
	if err != nil {
		return false, err
	}
	return f.Keep(ids), nil
}

// WorkFilter is the second, stricter pass over extracted works. A work is kept
// when at least one of its authors is indexed and, if Country is set, was
// affiliated with Country in the work's publication year, and, if Topic is set,
// the work lists Topic among its concepts.
type WorkFilter struct {
	Index   AuthorIndex
	Country string
	Topic   string
}

// Keep applies the filter to a parsed work.
func (f WorkFilter) Keep(w record.Work) bool {
	if f.Topic != "" && !slices.Contains(w.Topics, f.Topic) {
		return false
	}

	year := strconv.FormatUint(w.Year, 10)
	for _, id := range w.Authors {
		rec, ok := f.Index[id]
		if !ok {
			continue
		}
		if f.Country == "" || rec.Has(year, f.Country) {
			return true
		}
	}
	return false
}
