package transform

import (
	"bufio"
	"bytes"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/collabgraph/collabgraph/internal/errors"
)

// AuthorIndex is the in-memory form of a compact author file, keyed by full
// author id. It is built once before a filter pass and only read afterwards.
type AuthorIndex map[string]AffiliationRecord

// LoadAuthorIndex reads compact author lines from r. The file is an input of the
// run, so a line that does not decode fails the load.
func LoadAuthorIndex(r io.Reader) (AuthorIndex, error) {
	index := make(AuthorIndex)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var n int
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec CompactRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Malformed("author filter line %d: %v", n, err)
		}
		if rec.ID == "" {
			return nil, errors.Malformed("author filter line %d: missing id", n)
		}

		existing, ok := index[rec.ID]
		if !ok {
			existing = make(AffiliationRecord, len(rec.Affs))
			index[rec.ID] = existing
		}
		existing.Merge(rec.Affs)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.IO("read", "author filter", err)
	}
	return index, nil
}

// Authors returns the sorted set of indexed author ids.
func (idx AuthorIndex) Authors() AuthorSet {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	return NewAuthorSet(ids...)
}
