package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/engine"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/merge"
	"github.com/collabgraph/collabgraph/internal/metrics"
	"github.com/collabgraph/collabgraph/internal/partition"
	"github.com/collabgraph/collabgraph/internal/record"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

const (
	graphJob    = "graph"
	weightedJob = "graph.weighted"

	metadataPrefix = "metadata_"
	weightedPrefix = "weighted_"
)

// GraphResult describes a finished graph job.
type GraphResult struct {
	Tally *Tally
	// Routes holds what every interval received, in declared order.
	Routes []partition.RouteStats
	// Dropped is the number of works whose year matched no interval.
	Dropped int64
}

// Graph turns the works of cfg.Graph.Input into a co-authorship edge list per
// year interval. The input is split into byte ranges; each worker routes the
// edges of a work, as one block, to the shared sink of the first interval
// containing its year and writes the work's topics to a private metadata part
// file. Metadata parts are merged into metadata_<output> in worker order.
func (r *Runner) Graph(ctx context.Context) (*GraphResult, error) {
	ctx, span := tracer.Start(ctx, graphJob)
	defer span.End()

	res, err := r.graph(ctx)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return res, nil
}

func (r *Runner) graph(ctx context.Context) (*GraphResult, error) {
	cfg := r.cfg.Graph

	intervals, err := partition.Parse(cfg.Intervals)
	if err != nil {
		return nil, err
	}
	for _, i := range intervals {
		r.logger.Info("year interval", zap.String("interval", i.String()))
	}

	shards, err := r.byteShards(cfg.Input)
	if err != nil {
		return nil, err
	}

	outDir, base := filepath.Split(cfg.Output)
	if outDir != "" {
		if err := r.fs.MkdirAll(outDir, 0o755); err != nil {
			return nil, errors.IO("create", outDir, err)
		}
	}

	res := &GraphResult{}
	err = r.withTempDir(func(dir string) error {
		router, err := partition.NewRouter(intervals, func(i partition.Interval) (io.WriteCloser, error) {
			path := filepath.Join(outDir, i.FileName(base))
			f, err := r.fs.Create(path)
			if err != nil {
				return nil, errors.IO("create", path, err)
			}
			return f, nil
		})
		if err != nil {
			return err
		}

		report := engine.Execute(ctx, shards, func(ctx context.Context, s shard.Range) (*Tally, error) {
			return r.routeEdges(ctx, cfg.Input, dir, s, router)
		}, r.engineOptions(graphJob)...)

		closeErr := router.Close()
		if err := report.Err(); err != nil {
			return err
		}
		if closeErr != nil {
			return errors.IO("close", "edge list", closeErr)
		}

		res.Routes = router.Stats()
		res.Dropped = router.Dropped()
		res.Tally = merge.Reduce(newTally(), report.Values())
		r.report(graphJob, res.Tally)

		return r.concat(graphJob, filepath.Join(outDir, metadataPrefix+base), merge.Parts(dir, "metadata", len(shards)))
	})
	if err != nil {
		return nil, err
	}

	for _, rs := range res.Routes {
		metrics.EdgesRouted.WithLabelValues(rs.Interval.String()).Add(float64(rs.Writes))
		r.logger.Info("interval written",
			zap.String("interval", rs.Interval.String()),
			zap.String("path", filepath.Join(outDir, rs.Interval.FileName(base))),
			zap.Int64("works", rs.Writes),
			zap.Int64("bytes", rs.Bytes),
		)
	}
	if res.Dropped > 0 {
		r.logger.Info("works outside every interval dropped", zap.Int64("works", res.Dropped))
	}
	return res, nil
}

func (r *Runner) routeEdges(ctx context.Context, input, dir string, s shard.Range, router *partition.Router) (*Tally, error) {
	t := newTally()
	meta, err := createPart(r.fs, merge.PartName(dir, "metadata", s.Index))
	if err != nil {
		return nil, err
	}

	var buf []byte
	stats, err := record.ScanRange(ctx, r.fs, input, s, func(line []byte) error {
		w, err := record.ParseWork(line)
		if err != nil {
			return err
		}
		if _, err := meta.Write(transform.Metadata(w)); err != nil {
			return err
		}

		edges := transform.GenerateEdges(w)
		if len(edges) == 0 {
			return nil
		}
		buf = transform.AppendEdges(buf[:0], edges)
		routed, err := router.Route(w.Year, buf)
		if err != nil {
			return errors.IO("write", "edge list", err)
		}
		if routed {
			t.Written += int64(len(edges))
		}
		return nil
	})
	t.addScan(stats)
	if closeErr := meta.Close(); err == nil {
		err = closeErr
	}
	return t, err
}

// Weighted counts the edges between every unordered author pair of the edge
// list cfg.Graph.ExtractWeighted and writes `<A>,<B>,<count>` lines to
// weighted_<name> next to it.
func (r *Runner) Weighted(ctx context.Context) (*transform.WeightedEdges, error) {
	_, span := tracer.Start(ctx, weightedJob)
	defer span.End()

	in := r.cfg.Graph.ExtractWeighted
	f, err := r.fs.Open(in)
	if err != nil {
		err = errors.IO("open", in, err)
		telemetry.TraceError(span, err)
		return nil, err
	}
	defer f.Close()

	edges, err := transform.CountPairs(f)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	out := filepath.Join(filepath.Dir(in), weightedPrefix+filepath.Base(in))
	if err := r.writeFile(out, func(w io.Writer) error {
		_, err := edges.Counts.WriteTo(w)
		return err
	}); err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	metrics.RecordsProcessed.WithLabelValues(weightedJob).Add(float64(edges.Lines))
	metrics.RecordsSkipped.WithLabelValues(weightedJob, "missing_field").Add(float64(edges.Skipped))
	r.logger.Info("weighted edges written",
		zap.String("path", out),
		zap.Int64("edges", edges.Lines),
		zap.Int("pairs", len(edges.Counts)),
		zap.Int64("skipped", edges.Skipped),
	)
	r.logDigest(weightedJob, out)
	return &edges, nil
}
