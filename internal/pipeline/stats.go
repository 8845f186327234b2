package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/storage/sqlite"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

const statsJob = "stats"

// StatsResult describes a finished stats job.
type StatsResult struct {
	Stats  *transform.Stats
	Tally  *Tally
	Tables []transform.Table
}

// Stats accumulates corpus statistics over the works of cfg.Stats.Input. Every
// worker owns a private accumulator set for its byte range; the sets are reduced
// after the barrier and rendered as one CSV table per distribution in
// cfg.Stats.OutputDir, plus a summary table. When cfg.Stats.SQLite is set the
// tables are also exported to that database under the run id.
func (r *Runner) Stats(ctx context.Context) (*StatsResult, error) {
	ctx, span := tracer.Start(ctx, statsJob)
	defer span.End()

	res, err := r.stats(ctx)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return res, nil
}

func (r *Runner) stats(ctx context.Context) (*StatsResult, error) {
	cfg := r.cfg.Stats

	shards, err := r.byteShards(cfg.Input)
	if err != nil {
		return nil, err
	}

	type partial struct {
		stats *transform.Stats
		tally *Tally
	}

	report := engine.Execute(ctx, shards, func(ctx context.Context, s shard.Range) (partial, error) {
		p := partial{stats: transform.NewStats(), tally: newTally()}
		scan, err := record.ScanRange(ctx, r.fs, cfg.Input, s, p.stats.AddLine)
		p.tally.addScan(scan)
		p.tally.Written = int64(p.stats.Papers)
		return p, err
	}, r.engineOptions(statsJob)...)

	if err := report.Err(); err != nil {
		return nil, err
	}

	parts := make([]*transform.Stats, 0, len(shards))
	tallies := make([]*Tally, 0, len(shards))
	for _, p := range report.Values() {
		parts = append(parts, p.stats)
		tallies = append(tallies, p.tally)
	}

	res := &StatsResult{
		Stats: merge.Reduce(transform.NewStats(), parts),
		Tally: merge.Reduce(newTally(), tallies),
	}
	res.Tables = append(res.Stats.Tables(), res.Stats.Summary())
	r.report(statsJob, res.Tally)

	if err := r.writeTables(cfg.OutputDir, res.Tables); err != nil {
		return nil, err
	}

	if cfg.SQLite != "" {
		if err := r.exportTables(ctx, cfg.SQLite, res.Tables); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// writeTables writes every table to its own file in dir concurrently.
func (r *Runner) writeTables(dir string, tables []transform.Table) error {
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.IO("create", dir, err)
	}

	var g errgroup.Group
	for _, t := range tables {
		g.Go(func() error {
			return r.writeFile(filepath.Join(dir, t.Name), func(w io.Writer) error {
				_, err := t.WriteTo(w)
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, t := range tables {
		r.logDigest(statsJob, filepath.Join(dir, t.Name))
	}
	return nil
}

func (r *Runner) exportTables(ctx context.Context, uri string, tables []transform.Table) error {
	opts := []sqlite.Option{sqlite.WithLogger(r.logger)}
	if r.cfg.Metrics.Enabled {
		opts = append(opts, sqlite.WithMetrics())
	}
	store, err := sqlite.New(ctx, uri, opts...)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteTables(ctx, r.runID, tables...); err != nil {
		return err
	}
	r.logger.Info("statistics exported", zap.String("database", uri), zap.Int("tables", len(tables)))
	return nil
}
