// Package pipeline wires the locator, planner, engine and merge stages into the
// four jobs of collabgraph: author compaction, work filtering, collaboration
// graph generation and corpus statistics.
package pipeline

import (
	"bufio"
	"io"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/build"
	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/metrics"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/pkg/logger"
)

var tracer = otel.Tracer("internal/pipeline")

// Runner executes jobs with a fixed configuration. A Runner is meant for a
// single invocation of one command; jobs share its temporary directory.
type Runner struct {
	cfg    *config.Config
	fs     afero.Fs
	logger logger.Logger
	runID  string
}

type Option func(*Runner)

// WithFs sets the file system jobs read from and write to.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// New returns a Runner for cfg. It uses the OS file system unless WithFs is given.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = ulid.Make().String()
	}
	r.logger = r.logger.With(zap.String("run_id", r.runID))
	return r
}

// RunID returns the id of the run.
func (r *Runner) RunID() string {
	return r.runID
}

// tempDir is the directory holding the run's part files.
func (r *Runner) tempDir() string {
	return filepath.Join(r.cfg.TempDir, build.ProjectName+"-"+r.runID)
}

func (r *Runner) withTempDir(fn func(dir string) error) error {
	dir := r.tempDir()
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.IO("create", dir, err)
	}
	defer func() {
		if err := r.fs.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove temporary directory", zap.String("dir", dir), zap.Error(err))
		}
	}()
	return fn(dir)
}

func (r *Runner) engineOptions(job string) []engine.Option {
	return []engine.Option{
		engine.WithName(job),
		engine.WithLogger(r.logger),
		engine.WithFailFast(),
	}
}

// byteShards plans the byte ranges of the file at path.
func (r *Runner) byteShards(path string) ([]shard.Range, error) {
	size, err := record.FileSize(r.fs, path)
	if err != nil {
		return nil, err
	}
	return shard.Plan(size, r.cfg.Workers), nil
}

// concat merges parts into dst and logs the digest of the result.
func (r *Runner) concat(job, dst string, parts []string) error {
	n, err := merge.Concat(r.fs, dst, parts)
	if err != nil {
		return err
	}
	metrics.MergedBytes.WithLabelValues(job).Add(float64(n))
	r.logDigest(job, dst)
	return nil
}

func (r *Runner) logDigest(job, path string) {
	digest, err := merge.Digest(r.fs, path)
	if err != nil {
		r.logger.Warn("failed to fingerprint output", zap.String("job", job), zap.String("path", path), zap.Error(err))
		return
	}
	r.logger.Info("output written",
		zap.String("job", job),
		zap.String("path", path),
		zap.Uint64("xxhash", digest),
	)
}

// writeFile creates path, including its parent directory, and hands a
// buffered writer to fn.
func (r *Runner) writeFile(path string, fn func(w io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.IO("create", dir, err)
		}
	}

	f, err := r.fs.Create(path)
	if err != nil {
		return errors.IO("create", path, err)
	}

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return errors.IO("write", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.IO("close", path, err)
	}
	return nil
}

// report logs the counters of a finished stage and adds them to the metrics.
func (r *Runner) report(job string, t *Tally) {
	metrics.RecordsProcessed.WithLabelValues(job).Add(float64(t.Read))
	metrics.FilesSkipped.WithLabelValues(job).Add(float64(t.FilesSkipped))
	metrics.Skipped(job, t.Skipped)

	r.logger.Info("stage finished",
		zap.String("job", job),
		zap.Int64("read", t.Read),
		zap.Int64("written", t.Written),
		zap.Int64("skipped", t.SkippedTotal()),
		zap.Int64("files_skipped", t.FilesSkipped),
		zap.Any("skipped_by_reason", t.Skipped),
	)
}

// Config returns the configuration of the runner.
func (r *Runner) Config() *config.Config {
	return r.cfg
}
