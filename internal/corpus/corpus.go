// Package corpus enumerates the input files of a run.
package corpus

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/collabgraph/collabgraph/internal/errors"
)

const (
	// SnapshotSuffix is the suffix of compressed OpenAlex snapshot shards.
	SnapshotSuffix = ".gz"
	// JSONLSuffix is the suffix of previously extracted line-delimited JSON files.
	JSONLSuffix = ".jsonl"
)

// Locate walks root recursively and returns every regular file whose name ends
// with suffix, sorted lexically so that every run sees the same order. A root
// that does not exist or cannot be walked yields an error tagged with ErrIO.
func Locate(afs afero.Fs, root, suffix string) ([]string, error) {
	info, err := afs.Stat(root)
	if err != nil {
		return nil, errors.IO("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.IO("walk", root, fs.ErrInvalid)
	}

	var files []string
	err = afero.Walk(afs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && strings.HasSuffix(info.Name(), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.IO("walk", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Sizes returns the size in bytes of every file, in order.
func Sizes(afs afero.Fs, files []string) ([]int64, error) {
	sizes := make([]int64, 0, len(files))
	for _, f := range files {
		info, err := afs.Stat(f)
		if err != nil {
			return nil, errors.IO("stat", f, err)
		}
		sizes = append(sizes, info.Size())
	}
	return sizes, nil
}
