package transform

import (
	"bufio"
	"io"
)

// Table is a two column result table rendered as CSV.
type Table struct {
	Name   string
	Header [2]string
	Rows   [][2]string
}

// WriteTo writes the header and rows as `key,value` lines.
func (t Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, row := range append([][2]string{t.Header}, t.Rows...) {
		n, err := bw.WriteString(row[0] + "," + row[1] + "\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

// Lookup returns the value of the row with key.
func (t Table) Lookup(key string) (string, bool) {
	for _, row := range t.Rows {
		if row[0] == key {
			return row[1], true
		}
	}
	return "", false
}
