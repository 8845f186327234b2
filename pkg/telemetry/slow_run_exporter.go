package telemetry

import (
	"context"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type slowRunExporter struct {
	next      sdktrace.SpanExporter
	threshold time.Duration
}

var _ sdktrace.SpanExporter = (*slowRunExporter)(nil)

// NewSlowRunExporter forwards to next only the traces whose root span lasted at
// least threshold. A run with a handful of fast stages then costs nothing at the
// collector while the shards of a slow stage are kept in full.
func NewSlowRunExporter(next sdktrace.SpanExporter, threshold time.Duration) sdktrace.SpanExporter {
	return &slowRunExporter{next: next, threshold: threshold}
}

func (e *slowRunExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	slow := make(map[trace.TraceID]bool)
	for _, span := range spans {
		if span.Parent().IsValid() {
			continue
		}
		if span.EndTime().Sub(span.StartTime()) >= e.threshold {
			slow[span.SpanContext().TraceID()] = true
		}
	}
	if len(slow) == 0 {
		return nil
	}

	kept := spans[:0:0]
	for _, span := range spans {
		if slow[span.SpanContext().TraceID()] {
			kept = append(kept, span)
		}
	}
	return e.next.ExportSpans(ctx, kept)
}

func (e *slowRunExporter) Shutdown(ctx context.Context) error {
	return e.next.Shutdown(ctx)
}
