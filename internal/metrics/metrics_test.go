package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/pkg/logger"
)

func TestSkipped(t *testing.T) {
	before := testutil.ToFloat64(RecordsSkipped.WithLabelValues("test-skipped", "malformed"))

	Skipped("test-skipped", map[string]int64{"malformed": 3, "missing_field": 1})

	require.InDelta(t, before+3, testutil.ToFloat64(RecordsSkipped.WithLabelValues("test-skipped", "malformed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(RecordsSkipped.WithLabelValues("test-skipped", "missing_field")), 0)
}

func TestServeShutdown(t *testing.T) {
	s := Serve("127.0.0.1:0", logger.NewNoopLogger())
	require.NoError(t, s.Shutdown(context.Background()))
}
