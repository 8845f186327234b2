package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/internal/transform"
)

func TestPrepareDSN(t *testing.T) {
	var testcases = map[string]struct {
		uri      string
		expected string
	}{
		`path_only`: {
			uri:      "stats.db",
			expected: "stats.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%28100%29&_txlock=immediate",
		},
		`keeps_given_pragmas`: {
			uri:      "file:stats.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_txlock=deferred",
			expected: "file:stats.db?_pragma=journal_mode%28DELETE%29&_pragma=busy_timeout%285000%29&_txlock=deferred",
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			got, err := PrepareDSN(tc.uri)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}

	_, err := PrepareDSN("stats.db?%zz")
	require.Error(t, err)
}

func TestWriteAndReadTables(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	s := transform.NewStats()
	require.NoError(t, s.AddLine([]byte(`{"id":"W1","publication_year":2020,"authorships":[{"author":{"id":"A1"}},{"author":{"id":"A2"}}],"concepts":[{"display_name":"AI"}]}`)))
	require.NoError(t, s.AddLine([]byte(`{"id":"W2","publication_year":2019,"authorships":[{"author":{"id":"A1"}}],"concepts":[]}`)))

	runID := ulid.Make().String()
	tables := append(s.Tables(), s.Summary())
	require.NoError(t, store.WriteTables(ctx, runID, tables...))

	for _, table := range tables {
		rows, err := store.ReadTable(ctx, runID, table.Name)
		require.NoError(t, err)
		require.Equal(t, table.Rows, rows, table.Name)
	}

	rows, err := store.ReadTable(ctx, ulid.Make().String(), transform.PapersPerYearFile)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func dbStatsRegistered(t *testing.T) bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "go_sql_open_connections" {
			return true
		}
	}
	return false
}

func TestWithMetricsRegistersDBStats(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "stats.db"), WithMetrics())
	require.NoError(t, err)
	require.True(t, dbStatsRegistered(t))

	store.Close()
	require.False(t, dbStatsRegistered(t))
}

func TestWriteTablesTwiceCollides(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	table := transform.Table{Name: "t", Header: [2]string{"k", "v"}, Rows: [][2]string{{"a", "1"}}}
	require.NoError(t, store.WriteTables(ctx, "run", table))
	require.ErrorIs(t, store.WriteTables(ctx, "run", table), ErrCollision)
}

func TestWriteTablesManyRows(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	table := transform.Table{Name: "big"}
	for i := 0; i < 3*rowsPerInsert+7; i++ {
		table.Rows = append(table.Rows, [2]string{ulid.Make().String(), "1"})
	}
	require.NoError(t, store.WriteTables(ctx, "run", table))

	rows, err := store.ReadTable(ctx, "run", "big")
	require.NoError(t, err)
	require.Equal(t, table.Rows, rows)
}
