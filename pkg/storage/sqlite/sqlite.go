// Package sqlite exports statistics tables into a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/collabgraph/collabgraph/internal/build"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/logger"
)

var tracer = otel.Tracer("collabgraph/pkg/storage/sqlite")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sqlite."+name)
}

const (
	statisticsTable = "statistics"

	// rowsPerInsert bounds the number of rows of one INSERT statement so that it
	// stays below SQLite's host parameter limit.
	rowsPerInsert = 500
)

const schema = `CREATE TABLE IF NOT EXISTS statistics (
	run_id      TEXT    NOT NULL,
	table_name  TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	key         TEXT    NOT NULL,
	value       TEXT    NOT NULL,
	inserted_at TEXT    NOT NULL,
	PRIMARY KEY (run_id, table_name, position)
)`

// Store writes statistics tables of a run into SQLite. Each row keeps its
// position in the table so that reads return the rows in the order they were
// rendered.
type Store struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics registers a database statistics collector for the store.
func WithMetrics() Option {
	return func(s *Store) {
		s.dbStatsCollector = collectors.NewDBStatsCollector(s.db, build.ProjectName)
	}
}

// PrepareDSN turns a path or DSN into a DSN with defaults for journal mode and
// busy timeout.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}

		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	return uri + "?" + query.Encode(), nil
}

// New opens the database at uri and creates the statistics table if needed.
func New(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	s := &Store{
		stbl:   sq.StatementBuilder.RunWith(db),
		db:     db,
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dbStatsCollector != nil {
		if err := prometheus.Register(s.dbStatsCollector); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	if err := busyRetry(func() error {
		_, err := db.ExecContext(ctx, schema)
		return err
	}); err != nil {
		s.Close()
		return nil, HandleSQLError(err)
	}

	return s, nil
}

// Close releases the database.
func (s *Store) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// WriteTables stores every row of tables under runID in one transaction.
func (s *Store) WriteTables(ctx context.Context, runID string, tables ...transform.Table) error {
	ctx, span := startTrace(ctx, "WriteTables")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID), attribute.Int("tables", len(tables)))

	var txn *sql.Tx
	err := busyRetry(func() error {
		var err error
		txn, err = s.db.BeginTx(ctx, nil)
		return err
	})
	if err != nil {
		return HandleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	var rows int
	for _, table := range tables {
		for start := 0; start < len(table.Rows); start += rowsPerInsert {
			end := min(start+rowsPerInsert, len(table.Rows))

			insert := s.stbl.
				Insert(statisticsTable).
				Columns("run_id", "table_name", "position", "key", "value", "inserted_at")
			for i, row := range table.Rows[start:end] {
				insert = insert.Values(runID, table.Name, start+i, row[0], row[1], sq.Expr("datetime('subsec')"))
			}

			err := busyRetry(func() error {
				_, err := insert.RunWith(txn).ExecContext(ctx)
				return err
			})
			if err != nil {
				return HandleSQLError(err)
			}
		}
		rows += len(table.Rows)
	}

	if err := busyRetry(txn.Commit); err != nil {
		return HandleSQLError(err)
	}

	s.logger.Debug("statistics exported to sqlite",
		zap.String("run_id", runID),
		zap.Int("tables", len(tables)),
		zap.Int("rows", rows),
	)
	return nil
}

// ReadTable returns the rows of one table of a run in their original order.
func (s *Store) ReadTable(ctx context.Context, runID, name string) ([][2]string, error) {
	ctx, span := startTrace(ctx, "ReadTable")
	defer span.End()

	rows, err := s.stbl.
		Select("key", "value").
		From(statisticsTable).
		Where(sq.Eq{"run_id": runID, "table_name": name}).
		OrderBy("position").
		QueryContext(ctx)
	if err != nil {
		return nil, HandleSQLError(err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var row [2]string
		if err := rows.Scan(&row[0], &row[1]); err != nil {
			return nil, HandleSQLError(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, HandleSQLError(err)
	}
	return out, nil
}

// ErrCollision is returned when rows of the same run and table are written twice.
var ErrCollision = errors.New("statistics already exported for this run")

// HandleSQLError maps driver errors to package errors.
func HandleSQLError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %w", ErrCollision, err)
	}
	return fmt.Errorf("sql error: %w", err)
}

// SQLite will return an SQLITE_BUSY error when the database is locked rather than waiting for the lock.
// This function retries the operation up to maxRetries times before returning the error.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}

		if isBusyError(err) {
			if retries < maxRetries {
				continue
			}

			return fmt.Errorf("sqlite busy error after %d retries: %w", maxRetries, err)
		}

		return err
	}
}

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}
