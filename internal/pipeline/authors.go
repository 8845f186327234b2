package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

const (
	authorsJob    = "authors"
	compactJob    = "authors.compact"
	verboseAuthor = "authors_verbose.jsonl"
)

// AuthorsResult describes a finished authors job.
type AuthorsResult struct {
	Extract *Tally
	Compact *Tally
	// Authors is the number of authors written to the compact output.
	Authors int
	// Filtered is the number of authors written to the country filtered output.
	Filtered int
}

// Authors extracts the affiliation history of every author of the snapshot
// under cfg.Authors.InputDir and writes one compact record per author. When a
// country is configured the authors ever affiliated with it are additionally
// written to cfg.Authors.FilteredOutput.
//
// The job runs in two sharded stages. Snapshot files are split across workers
// which write verbose records to part files, merged in worker order. The merged
// file is then split into byte ranges and every worker folds its lines into a
// private compactor; compactors are reduced once all workers have returned.
func (r *Runner) Authors(ctx context.Context) (*AuthorsResult, error) {
	ctx, span := tracer.Start(ctx, authorsJob)
	defer span.End()

	cfg := r.cfg.Authors
	files, err := r.locate(authorsJob, cfg.InputDir)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	res := &AuthorsResult{}
	err = r.withTempDir(func(dir string) error {
		parts, t, err := r.extractFiles(ctx, authorsJob, dir, "authors", files, transform.ExtractAffiliations)
		if err != nil {
			return err
		}
		res.Extract = t

		verbose := filepath.Join(dir, verboseAuthor)
		if err := r.concat(authorsJob, verbose, parts); err != nil {
			return err
		}

		compactor, t, err := r.compact(ctx, verbose)
		if err != nil {
			return err
		}
		res.Compact = t

		if err := r.writeFile(cfg.Output, func(w io.Writer) error {
			res.Authors, err = compactor.WriteCompact(w, "")
			return err
		}); err != nil {
			return err
		}
		r.logDigest(authorsJob, cfg.Output)

		if cfg.Country == "" {
			return nil
		}
		if err := r.writeFile(cfg.FilteredOutput, func(w io.Writer) error {
			res.Filtered, err = compactor.WriteCompact(w, cfg.Country)
			return err
		}); err != nil {
			return err
		}
		r.logDigest(authorsJob, cfg.FilteredOutput)
		return nil
	})
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	r.logger.Info("authors compacted",
		zap.Int("authors", res.Authors),
		zap.String("country", cfg.Country),
		zap.Int("filtered", res.Filtered),
	)
	return res, nil
}

func (r *Runner) compact(ctx context.Context, verbose string) (*transform.Compactor, *Tally, error) {
	shards, err := r.byteShards(verbose)
	if err != nil {
		return nil, nil, err
	}

	type partial struct {
		compactor *transform.Compactor
		tally     *Tally
	}

	report := engine.Execute(ctx, shards, func(ctx context.Context, s shard.Range) (partial, error) {
		p := partial{compactor: transform.NewCompactor(), tally: newTally()}
		stats, err := record.ScanRange(ctx, r.fs, verbose, s, p.compactor.AddVerbose)
		p.tally.addScan(stats)
		p.tally.Written = int64(p.compactor.Len())
		return p, err
	}, r.engineOptions(compactJob)...)

	if err := report.Err(); err != nil {
		return nil, nil, err
	}

	compactors := make([]*transform.Compactor, 0, len(shards))
	tallies := make([]*Tally, 0, len(shards))
	for _, p := range report.Values() {
		compactors = append(compactors, p.compactor)
		tallies = append(tallies, p.tally)
	}

	compactor := merge.Reduce(transform.NewCompactor(), compactors)
	t := merge.Reduce(newTally(), tallies)
	t.Written = int64(compactor.Len())
	r.report(compactJob, t)
	return compactor, t, nil
}
