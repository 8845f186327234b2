package partition

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const sinkBufferSize = 256 * 1024

// OpenFunc opens the sink of an interval.
type OpenFunc func(Interval) (io.WriteCloser, error)

type route struct {
	interval Interval

	mu     sync.Mutex
	sink   io.WriteCloser
	buf    *bufio.Writer
	writes int64
	bytes  int64
}

// Router hands payloads to the sink of the first interval containing their year.
// Each sink is shared by every worker and guarded by its own mutex, so a payload
// is never interleaved with another one.
type Router struct {
	routes  []*route
	dropped atomic.Int64
}

// NewRouter opens one sink per interval, in order. If a sink fails to open the
// sinks opened so far are closed.
func NewRouter(intervals []Interval, open OpenFunc) (*Router, error) {
	r := &Router{routes: make([]*route, 0, len(intervals))}
	for _, interval := range intervals {
		sink, err := open(interval)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.routes = append(r.routes, &route{
			interval: interval,
			sink:     sink,
			buf:      bufio.NewWriterSize(sink, sinkBufferSize),
		})
	}
	return r, nil
}

// Route writes payload to the first interval containing year. It reports false
// when no interval matches, in which case the payload is dropped.
func (r *Router) Route(year uint64, payload []byte) (bool, error) {
	for _, rt := range r.routes {
		if !rt.interval.Contains(year) {
			continue
		}

		rt.mu.Lock()
		defer rt.mu.Unlock()

		n, err := rt.buf.Write(payload)
		rt.writes++
		rt.bytes += int64(n)
		return true, err
	}

	r.dropped.Add(1)
	return false, nil
}

// Dropped returns the number of payloads no interval matched.
func (r *Router) Dropped() int64 {
	return r.dropped.Load()
}

// RouteStats describes what a sink received.
type RouteStats struct {
	Interval Interval
	Writes   int64
	Bytes    int64
}

// Stats returns per-interval counters in interval order.
func (r *Router) Stats() []RouteStats {
	stats := make([]RouteStats, 0, len(r.routes))
	for _, rt := range r.routes {
		rt.mu.Lock()
		stats = append(stats, RouteStats{Interval: rt.interval, Writes: rt.writes, Bytes: rt.bytes})
		rt.mu.Unlock()
	}
	return stats
}

// Close flushes and closes every sink concurrently and returns the first error.
func (r *Router) Close() error {
	var g errgroup.Group
	for _, rt := range r.routes {
		g.Go(func() error {
			rt.mu.Lock()
			defer rt.mu.Unlock()

			flushErr := rt.buf.Flush()
			closeErr := rt.sink.Close()
			if flushErr != nil {
				return flushErr
			}
			return closeErr
		})
	}
	return g.Wait()
}
