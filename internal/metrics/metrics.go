// Package metrics holds the Prometheus collectors of a run and the optional
// endpoint exposing them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/build"
	"github.com/collabgraph/collabgraph/pkg/logger"
)

var (
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "records_processed_total",
		Help:      "The total number of records read by a job.",
	}, []string{"job"})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "records_skipped_total",
		Help:      "The total number of records a job skipped, by reason.",
	}, []string{"job", "reason"})

	FilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "files_skipped_total",
		Help:      "The total number of input files skipped because they could not be decoded.",
	}, []string{"job"})

	ShardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "shard_duration_seconds",
		Help:                            "Time a worker spent on its shard.",
		Buckets:                         prometheus.ExponentialBuckets(0.1, 2, 14),
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	}, []string{"job", "status"})

	MergedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "merged_bytes_total",
		Help:      "The total number of bytes written by concatenative merges.",
	}, []string{"job"})

	EdgesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "edges_routed_total",
		Help:      "The total number of works whose edges were written to a year interval.",
	}, []string{"interval"})
)

// Skipped adds the per-reason skip counts of a job.
func Skipped(job string, byReason map[string]int64) {
	for reason, n := range byReason {
		RecordsSkipped.WithLabelValues(job, reason).Add(float64(n))
	}
}

// Server exposes the default registry on /metrics.
type Server struct {
	srv    *http.Server
	logger logger.Logger
	done   chan struct{}
}

// Serve starts a metrics server on addr in the background.
func Serve(addr string, log logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: log,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		log.Info("starting prometheus metrics server", zap.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("prometheus metrics server failed", zap.Error(err))
			return
		}
		log.Info("metrics server shut down.")
	}()

	return s
}

// Shutdown stops the server and waits for it to return.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
