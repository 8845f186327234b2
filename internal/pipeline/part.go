package pipeline

import (
	"bufio"

	"github.com/spf13/afero"

	"github.com/collabgraph/collabgraph/internal/errors"
)

// part is the private output file of one worker.
type part struct {
	path string
	f    afero.File
	buf  *bufio.Writer
}

func createPart(fs afero.Fs, path string) (*part, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, errors.IO("create", path, err)
	}
	return &part{path: path, f: f, buf: bufio.NewWriterSize(f, 256*1024)}, nil
}

// WriteLine writes line followed by a newline.
func (p *part) WriteLine(line []byte) error {
	if _, err := p.buf.Write(line); err != nil {
		return errors.IO("write", p.path, err)
	}
	if err := p.buf.WriteByte('\n'); err != nil {
		return errors.IO("write", p.path, err)
	}
	return nil
}

// Write writes b verbatim.
func (p *part) Write(b []byte) (int, error) {
	n, err := p.buf.Write(b)
	if err != nil {
		return n, errors.IO("write", p.path, err)
	}
	return n, nil
}

func (p *part) Close() error {
	flushErr := p.buf.Flush()
	closeErr := p.f.Close()
	if flushErr != nil {
		return errors.IO("write", p.path, flushErr)
	}
	if closeErr != nil {
		return errors.IO("close", p.path, closeErr)
	}
	return nil
}
