// Package record decodes OpenAlex entity lines.
//
// Snapshot shards are gzip files holding one JSON object per line. Extracted
// intermediate files are plain line-delimited JSON. Field access goes through
// gjson so a record is never unmarshalled in full.
package record

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/collabgraph/collabgraph/internal/errors"
)

const (
	// IDPrefix is the namespace prefix of every OpenAlex identifier.
	IDPrefix = "https://openalex.org/"

	// NoInstitution replaces the country of an affiliation whose institution has none.
	NoInstitution = "No institution found"

	// UnknownYear replaces an affiliation year that is not an integer.
	UnknownYear = "-1"
)

// ShortID strips the OpenAlex namespace from id.
func ShortID(id string) string {
	return strings.TrimPrefix(id, IDPrefix)
}

// Affiliation is one institution an author was affiliated with and the years of
// that affiliation.
type Affiliation struct {
	Country string
	Years   []string
}

// Author is the subset of an OpenAlex author entity used by the affiliation extractor.
type Author struct {
	ID           string
	Affiliations []Affiliation
}

// Years returns the number of (year, country) observations of the author.
func (a Author) Years() int {
	var n int
	for _, aff := range a.Affiliations {
		n += len(aff.Years)
	}
	return n
}

// ParseAuthor extracts an Author from a snapshot line. An author without a string
// id is reported with ErrMissingField. An author without affiliations is valid and
// has none.
func ParseAuthor(line []byte) (Author, error) {
	if !gjson.ValidBytes(line) {
		return Author{}, errors.Malformed("author record is not valid JSON")
	}

	id := gjson.GetBytes(line, "id")
	if id.Type != gjson.String {
		return Author{}, errors.MissingField("id")
	}

	author := Author{ID: id.String()}
	gjson.GetBytes(line, "affiliations").ForEach(func(_, aff gjson.Result) bool {
		country := aff.Get("institution.country_code")
		a := Affiliation{Country: NoInstitution}
		if country.Type == gjson.String {
			a.Country = country.String()
		}
		aff.Get("years").ForEach(func(_, year gjson.Result) bool {
			a.Years = append(a.Years, yearString(year))
			return true
		})
		author.Affiliations = append(author.Affiliations, a)
		return true
	})

	return author, nil
}

func yearString(year gjson.Result) string {
	if year.Type != gjson.Number {
		return UnknownYear
	}
	v, err := strconv.ParseInt(year.Raw, 10, 64)
	if err != nil {
		return UnknownYear
	}
	return strconv.FormatInt(v, 10)
}

// Work is the subset of an OpenAlex work entity used by the filters, the edge
// generator and the statistics accumulator.
type Work struct {
	ID string
	// Year is the publication year.
	Year uint64
	// Authors holds the author ids in authorship order. Authorships without an
	// author id are omitted.
	Authors []string
	// Authorships counts every authorship entry, with or without an author id.
	Authorships int
	// Topics holds the display names of the work's concepts.
	Topics []string
	// Raw is the unmodified input line.
	Raw []byte
}

// ParseWork extracts a Work from a line. A work missing its id, its publication
// year, its authorships or its concepts is reported with ErrMissingField and must
// not contribute to any output.
func ParseWork(line []byte) (Work, error) {
	if !gjson.ValidBytes(line) {
		return Work{}, errors.Malformed("work record is not valid JSON")
	}

	fields := gjson.GetManyBytes(line, "id", "publication_year", "authorships", "concepts")
	id, year, authorships, concepts := fields[0], fields[1], fields[2], fields[3]

	if id.Type != gjson.String {
		return Work{}, errors.MissingField("id")
	}
	y, err := strconv.ParseUint(year.Raw, 10, 64)
	if year.Type != gjson.Number || err != nil {
		return Work{}, errors.MissingField("publication_year")
	}
	if !authorships.IsArray() {
		return Work{}, errors.MissingField("authorships")
	}
	if !concepts.IsArray() {
		return Work{}, errors.MissingField("concepts")
	}

	work := Work{
		ID:          id.String(),
		Year:        y,
		Authors:     authorIDs(authorships),
		Authorships: len(authorships.Array()),
		Raw:         line,
	}
	concepts.ForEach(func(_, concept gjson.Result) bool {
		if name := concept.Get("display_name"); name.Type == gjson.String {
			work.Topics = append(work.Topics, name.String())
		}
		return true
	})

	return work, nil
}

// AuthorIDs returns the author ids of a work line without requiring any other
// field. It is the fast path of the membership filter.
func AuthorIDs(line []byte) ([]string, error) {
	if !gjson.ValidBytes(line) {
		return nil, errors.Malformed("work record is not valid JSON")
	}

	authorships := gjson.GetBytes(line, "authorships")
	if !authorships.IsArray() {
		return nil, errors.MissingField("authorships")
	}
	return authorIDs(authorships), nil
}

func authorIDs(authorships gjson.Result) []string {
	var ids []string
	authorships.ForEach(func(_, authorship gjson.Result) bool {
		if id := authorship.Get("author.id"); id.Type == gjson.String {
			ids = append(ids, id.String())
		}
		return true
	})
	return ids
}
