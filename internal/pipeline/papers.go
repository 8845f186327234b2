package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

const (
	papersJob = "papers"
	filterJob = "papers.filter"
)

// PapersResult describes a finished papers job. A stage that did not run is nil.
type PapersResult struct {
	Extract *Tally
	Filter  *Tally
}

// Papers runs the extraction and filtering passes selected by cfg.Papers.
//
// Extraction keeps the works of the snapshot written by at least one author of
// the author filter file. Filtering reads the extracted works, split into byte
// ranges, and keeps those listing the configured topic with an author
// affiliated with the configured country in the publication year. With
// SkipMerge the filter consumes the extractor's part files directly, one worker
// per part, and the extracted works are never merged.
func (r *Runner) Papers(ctx context.Context) (*PapersResult, error) {
	ctx, span := tracer.Start(ctx, papersJob)
	defer span.End()

	res, err := r.papers(ctx)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return res, nil
}

func (r *Runner) papers(ctx context.Context) (*PapersResult, error) {
	cfg := r.cfg.Papers

	index, err := r.loadAuthorIndex(cfg.AuthorFilter)
	if err != nil {
		return nil, err
	}

	var files []string
	if cfg.Extract {
		if files, err = r.locate(papersJob, cfg.InputDir); err != nil {
			return nil, err
		}
	}

	res := &PapersResult{}
	err = r.withTempDir(func(dir string) error {
		var parts []string
		if cfg.Extract {
			membership := transform.MembershipFilter{Authors: index.Authors()}
			parts, res.Extract, err = r.extractFiles(ctx, papersJob, dir, "papers", files, func(line []byte) ([]byte, error) {
				keep, err := membership.KeepLine(line)
				if err != nil || !keep {
					return nil, err
				}
				return line, nil
			})
			if err != nil {
				return err
			}

			if !cfg.SkipMerge {
				if err := r.concat(papersJob, cfg.Output, parts); err != nil {
					return err
				}
				parts = nil
			}
		}

		if !cfg.Filter {
			return nil
		}

		filter := transform.WorkFilter{Index: index, Country: cfg.Country, Topic: cfg.Topic}
		filtered, t, err := r.filter(ctx, dir, filter, cfg.Output, parts)
		if err != nil {
			return err
		}
		res.Filter = t
		return r.concat(filterJob, cfg.FilteredOutput, filtered)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) loadAuthorIndex(path string) (transform.AuthorIndex, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, errors.IO("open", path, err)
	}
	defer f.Close()

	index, err := transform.LoadAuthorIndex(f)
	if err != nil {
		return nil, err
	}
	r.logger.Info("author filter loaded", zap.String("path", path), zap.Int("authors", len(index)))
	return index, nil
}

// filter applies f to the works of input, or to inputParts when it is not nil,
// and returns the part files of the kept works.
func (r *Runner) filter(ctx context.Context, dir string, f transform.WorkFilter, input string, inputParts []string) ([]string, *Tally, error) {
	var (
		shards []shard.Range
		scan   func(ctx context.Context, s shard.Range, fn record.LineFunc) (record.ScanStats, error)
	)
	if inputParts != nil {
		shards = shard.Plan(int64(len(inputParts)), len(inputParts))
		scan = func(ctx context.Context, s shard.Range, fn record.LineFunc) (record.ScanStats, error) {
			return record.ScanFile(ctx, r.fs, inputParts[s.Start], fn)
		}
	} else {
		var err error
		if shards, err = r.byteShards(input); err != nil {
			return nil, nil, err
		}
		scan = func(ctx context.Context, s shard.Range, fn record.LineFunc) (record.ScanStats, error) {
			return record.ScanRange(ctx, r.fs, input, s, fn)
		}
	}

	report := engine.Execute(ctx, shards, func(ctx context.Context, s shard.Range) (*Tally, error) {
		t := newTally()
		out, err := createPart(r.fs, merge.PartName(dir, "papers-filtered", s.Index))
		if err != nil {
			return nil, err
		}

		stats, err := scan(ctx, s, func(line []byte) error {
			w, err := record.ParseWork(line)
			if err != nil {
				return err
			}
			if !f.Keep(w) {
				return nil
			}
			t.Written++
			return out.WriteLine(line)
		})
		t.addScan(stats)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		return t, err
	}, r.engineOptions(filterJob)...)

	if err := report.Err(); err != nil {
		return nil, nil, err
	}

	t := merge.Reduce(newTally(), report.Values())
	r.report(filterJob, t)
	return merge.Parts(dir, "papers-filtered", len(shards)), t, nil
}
