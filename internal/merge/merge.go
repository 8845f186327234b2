// Package merge combines the partial outputs of a sharded run.
//
// Two strategies exist. Concatenative merge appends per-worker part files in
// worker order; it is used whenever worker outputs are independent records.
// Key-wise reduction folds per-worker accumulators into one; it runs once, on a
// single goroutine, after every worker has returned.
package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/collabgraph/collabgraph/internal/errors"
)

// PartName returns the name of worker index's part file for prefix in dir.
func PartName(dir, prefix string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.part.%d", prefix, index))
}

// Parts returns the part file names of n workers in worker order.
func Parts(dir, prefix string, n int) []string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, PartName(dir, prefix, i))
	}
	return parts
}

// Concat truncates dst and appends every part to it, verbatim and in order, then
// removes the parts. A part that does not exist is treated as empty, since a
// worker that produced nothing may never have created it. It returns the number
// of bytes written.
func Concat(afs afero.Fs, dst string, parts []string) (int64, error) {
	if err := afs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, errors.IO("mkdir", filepath.Dir(dst), err)
	}
	out, err := afs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.IO("create", dst, err)
	}

	var written int64
	for _, part := range parts {
		n, err := appendPart(afs, out, part)
		written += n
		if err != nil {
			_ = out.Close()
			return written, err
		}
	}
	if err := out.Close(); err != nil {
		return written, errors.IO("close", dst, err)
	}

	for _, part := range parts {
		if err := afs.Remove(part); err != nil && !os.IsNotExist(err) {
			return written, errors.IO("remove", part, err)
		}
	}
	return written, nil
}

func appendPart(afs afero.Fs, w io.Writer, part string) (int64, error) {
	in, err := afs.Open(part)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.IO("open", part, err)
	}
	defer in.Close()

	n, err := io.Copy(w, in)
	if err != nil {
		return n, errors.IO("append", part, err)
	}
	return n, nil
}

// Digest returns the xxhash of the file at path.
func Digest(afs afero.Fs, path string) (uint64, error) {
	f, err := afs.Open(path)
	if err != nil {
		return 0, errors.IO("open", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, errors.IO("read", path, err)
	}
	return h.Sum64(), nil
}

// Mergeable is an accumulator that can absorb another of its kind. Merge must be
// commutative and associative so the reduction order does not matter.
type Mergeable[T any] interface {
	Merge(other T)
}

// Reduce folds every part into dst in order and returns dst.
func Reduce[T Mergeable[T]](dst T, parts []T) T {
	for _, p := range parts {
		dst.Merge(p)
	}
	return dst
}
