package record

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/shard"
)

const cancelCheckInterval = 1024

// ErrUndecodable marks a snapshot file whose content cannot be decompressed or
// decoded. Callers may skip such a file; every other error is fatal.
var ErrUndecodable = stderrors.New("undecodable file")

// ReadGzipLines decompresses the whole file at path into memory and returns its
// non-empty lines. The file is all or nothing: a decompression failure is tagged
// with ErrIO and any line that is not valid JSON fails the file with
// ErrMalformedRecord. Both are also tagged with ErrUndecodable; a failure to open
// the file is not.
func ReadGzipLines(afs afero.Fs, path string) ([][]byte, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, errors.IO("open", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.With(errors.IO("decompress", path, err), ErrUndecodable)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.With(errors.IO("decompress", path, err), ErrUndecodable)
	}

	lines := make([][]byte, 0, bytes.Count(data, []byte{'\n'})+1)
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, errors.With(errors.Malformed("%s: line %d is not valid JSON", path, i+1), ErrUndecodable)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// FileSize returns the size in bytes of the file at path.
func FileSize(afs afero.Fs, path string) (int64, error) {
	info, err := afs.Stat(path)
	if err != nil {
		return 0, errors.IO("stat", path, err)
	}
	return info.Size(), nil
}

// ScanStats describes what a scan consumed.
type ScanStats struct {
	// Lines is the number of non-empty lines handed to the callback.
	Lines int64
	// Bytes is the number of bytes owned by the scanned range that were read.
	Bytes int64
	// Skipped counts the lines the callback rejected, keyed by errors.Reason.
	Skipped map[string]int64
}

// SkippedTotal returns the number of rejected lines across all reasons.
func (s ScanStats) SkippedTotal() int64 {
	var n int64
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

func (s *ScanStats) skip(err error) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int64)
	}
	s.Skipped[errors.Reason(err)]++
}

// LineFunc handles one line. Returning an error tagged with ErrMalformedRecord or
// ErrMissingField skips the line. Any other error stops the scan.
type LineFunc func(line []byte) error

// ScanRange reads the lines of the file at path that start inside r.
//
// A range owns every line whose first byte lies in [r.Start, r.End). When
// r.Start is not zero the reader seeks to r.Start-1 and discards everything up
// to and including the next newline, so a line straddling the boundary is read
// once, by the range holding its first byte. Ranges produced by shard.Plan over
// the file size therefore visit every line exactly once.
func ScanRange(ctx context.Context, afs afero.Fs, path string, r shard.Range, fn LineFunc) (ScanStats, error) {
	var stats ScanStats

	f, err := afs.Open(path)
	if err != nil {
		return stats, errors.IO("open", path, err)
	}
	defer f.Close()

	pos := r.Start
	if r.Start > 0 {
		if _, err := f.Seek(r.Start-1, io.SeekStart); err != nil {
			return stats, errors.IO("seek", path, err)
		}
		pos = r.Start - 1
	}

	br := bufio.NewReaderSize(f, 1<<20)
	if r.Start > 0 {
		skipped, err := br.ReadBytes('\n')
		pos += int64(len(skipped))
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, errors.IO("read", path, err)
		}
	}

	for pos < r.End {
		if stats.Lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		line, readErr := br.ReadBytes('\n')
		pos += int64(len(line))
		stats.Bytes += int64(len(line))
		if readErr != nil && !stderrors.Is(readErr, io.EOF) {
			return stats, errors.IO("read", path, readErr)
		}

		line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte{'\n'}), []byte{'\r'})
		if len(line) > 0 {
			stats.Lines++
			if err := fn(line); err != nil {
				if !skippable(err) {
					return stats, err
				}
				stats.skip(err)
			}
		}

		if readErr != nil {
			break
		}
	}

	return stats, nil
}

// ScanFile reads every line of the file at path.
func ScanFile(ctx context.Context, afs afero.Fs, path string, fn LineFunc) (ScanStats, error) {
	size, err := FileSize(afs, path)
	if err != nil {
		return ScanStats{}, err
	}
	return ScanRange(ctx, afs, path, shard.Range{Start: 0, End: size}, fn)
}

func skippable(err error) bool {
	return stderrors.Is(err, errors.ErrMalformedRecord) || stderrors.Is(err, errors.ErrMissingField)
}
