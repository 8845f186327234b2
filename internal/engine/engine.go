// Package engine runs one function per shard on a fixed pool of workers and
// reports what every worker did.
//
// Execute starts exactly one goroutine per shard and returns only once all of
// them have returned, so the caller's merge step always observes complete
// per-worker state. Workers share nothing through the engine: each result is
// written to its own slot of the report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/metrics"
	"github.com/collabgraph/collabgraph/internal/shard"
	"github.com/collabgraph/collabgraph/pkg/logger"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

var tracer = otel.Tracer("internal/engine")

// Func processes one shard with private state and returns its partial result.
type Func[R any] func(ctx context.Context, s shard.Range) (R, error)

// Result is what one worker produced.
type Result[R any] struct {
	Shard    shard.Range
	Value    R
	Err      error
	Duration time.Duration
}

// Report holds one Result per shard, in shard order.
type Report[R any] struct {
	Name    string
	Results []Result[R]
}

// Err returns the failures of every worker joined together, or nil when all
// workers succeeded.
func (r Report[R]) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s shard %d: %w", r.Name, res.Shard.Index, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Succeeded returns the results of the workers that returned without error.
func (r Report[R]) Succeeded() []Result[R] {
	ok := make([]Result[R], 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			ok = append(ok, res)
		}
	}
	return ok
}

// Failed returns the results of the workers that returned an error.
func (r Report[R]) Failed() []Result[R] {
	var failed []Result[R]
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Values returns the values of the successful workers in shard order.
func (r Report[R]) Values() []R {
	values := make([]R, 0, len(r.Results))
	for _, res := range r.Succeeded() {
		values = append(values, res.Value)
	}
	return values
}

type options struct {
	name     string
	failFast bool
	logger   logger.Logger
}

type Option func(*options)

// WithName labels logs, spans and metrics of the run.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithFailFast cancels the context shared by the workers as soon as one of
// them fails. Workers that observe the cancellation report it as their error.
func WithFailFast() Option {
	return func(o *options) {
		o.failFast = true
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Execute runs fn once per shard, each on its own goroutine, and blocks until
// every worker has returned. A worker that panics is reported as failed with
// the recovered panic as its error.
func Execute[R any](ctx context.Context, shards []shard.Range, fn Func[R], opts ...Option) Report[R] {
	o := options{name: "execute", logger: logger.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	report := Report[R]{Name: o.name, Results: make([]Result[R], len(shards))}
	if len(shards) == 0 {
		return report
	}

	ctx, span := tracer.Start(ctx, o.name, trace.WithAttributes(
		attribute.Int("workers", len(shards)),
		attribute.Bool("fail_fast", o.failFast),
	))
	defer span.End()

	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(shards))
	if o.failFast {
		p = p.WithCancelOnError()
	}

	for i, s := range shards {
		p.Go(func(ctx context.Context) error {
			res := run(ctx, o, s, fn)
			report.Results[i] = res
			return res.Err
		})
	}
	_ = p.Wait()

	if err := report.Err(); err != nil {
		telemetry.TraceError(span, err)
	}
	o.logger.Info("workers joined",
		zap.String("job", o.name),
		zap.Int("workers", len(shards)),
		zap.Int("failed", len(report.Failed())),
	)
	return report
}

func run[R any](ctx context.Context, o options, s shard.Range, fn Func[R]) Result[R] {
	ctx, span := tracer.Start(ctx, o.name+".shard", trace.WithAttributes(
		attribute.Int("shard.index", s.Index),
		attribute.Int64("shard.start", s.Start),
		attribute.Int64("shard.end", s.End),
	))
	defer span.End()

	start := time.Now()
	res := Result[R]{Shard: s}

	recovered := panics.Try(func() {
		res.Value, res.Err = fn(ctx, s)
	})
	if recovered != nil {
		res.Err = recovered.AsError()
	}
	res.Duration = time.Since(start)

	status := "ok"
	if res.Err != nil {
		status = "error"
		telemetry.TraceError(span, res.Err)
		o.logger.Error("worker failed",
			zap.String("job", o.name),
			zap.Int("shard", s.Index),
			zap.Error(res.Err),
		)
	} else {
		o.logger.Debug("worker done",
			zap.String("job", o.name),
			zap.Int("shard", s.Index),
			zap.Duration("took", res.Duration),
		)
	}
	metrics.ShardDuration.WithLabelValues(o.name, status).Observe(res.Duration.Seconds())

	return res
}
