package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/corpus"
	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
)

// lineTransform maps a snapshot line to an output line. A nil line drops the
// record; an error skips it.
type lineTransform func(line []byte) ([]byte, error)

// locate lists the snapshot shards under root and logs how much input a job
// will read.
func (r *Runner) locate(job, root string) ([]string, error) {
	files, err := corpus.Locate(r.fs, root, corpus.SnapshotSuffix)
	if err != nil {
		return nil, err
	}
	sizes, err := corpus.Sizes(r.fs, files)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, s := range sizes {
		total += s
	}
	r.logger.Info("input located",
		zap.String("job", job),
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int64("bytes", total),
	)
	return files, nil
}

// extractFiles shards files across the workers. Every worker decodes its files
// whole, applies fn to each line and writes the kept lines to its part file in
// dir. A file that fails to decode is logged and skipped. It returns the part
// files in worker order.
func (r *Runner) extractFiles(ctx context.Context, job, dir, prefix string, files []string, fn lineTransform) ([]string, *Tally, error) {
	shards := shard.Plan(int64(len(files)), r.cfg.Workers)

	report := engine.Execute(ctx, shards, func(ctx context.Context, s shard.Range) (*Tally, error) {
		t := newTally()
		out, err := createPart(r.fs, merge.PartName(dir, prefix, s.Index))
		if err != nil {
			return nil, err
		}

		err = r.extractShard(ctx, job, shard.Slice(files, s), fn, out, t)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		return t, err
	}, r.engineOptions(job)...)

	if err := report.Err(); err != nil {
		return nil, nil, err
	}

	t := merge.Reduce(newTally(), report.Values())
	r.report(job, t)
	return merge.Parts(dir, prefix, len(shards)), t, nil
}

func (r *Runner) extractShard(ctx context.Context, job string, files []string, fn lineTransform, out *part, t *Tally) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, err := record.ReadGzipLines(r.fs, file)
		if err != nil {
			if !errors.Is(err, record.ErrUndecodable) {
				return err
			}
			t.FilesSkipped++
			r.logger.Warn("skipping undecodable file",
				zap.String("job", job),
				zap.String("file", file),
				zap.Error(err),
			)
			continue
		}

		for _, line := range lines {
			t.Read++
			kept, err := fn(line)
			if err != nil {
				t.skip(err)
				continue
			}
			if kept == nil {
				continue
			}
			if err := out.WriteLine(kept); err != nil {
				return err
			}
			t.Written++
		}
	}
	return nil
}
