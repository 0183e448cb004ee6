// Package auditlog records tool invocations in a MySQL-compatible table
// (TiDB or MySQL). Writes are best effort: a failed insert is logged and
// never reaches the tool caller.
package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/XSAM/otelsql"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/sqlutil"
)

// DefaultTable is the audit table name when none is configured.
const DefaultTable = "tool_invocations"

const (
	StatusOK    = "ok"
	StatusError = "error"
)

const defaultTimeout = 2 * time.Second

var columns = []string{"id", "tool", "resolver", "query_hash", "status", "error_kind", "duration_ms", "created_at"}

// Entry is one audited tool call.
type Entry struct {
	ID        string
	Tool      string
	Resolver  string
	QueryHash string
	Status    string
	ErrorKind string
	Duration  time.Duration
	CreatedAt time.Time
}

// Config configures Open.
type Config struct {
	DSN         string
	Table       string
	Timeout     time.Duration
	MaxOpen     int
	MaxIdle     int
	CreateTable bool
	// Metrics and Tracing enable otelsql instrumentation of the pool.
	Metrics bool
	Tracing bool
}

// Store writes and reads audit entries.
type Store struct {
	db      *sql.DB
	table   string
	quoted  string
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time

	statsReg interface{ Unregister() error }
}

// New wraps an open database handle.
func New(db *sql.DB, table string, timeout time.Duration, logger *logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("audit database is nil")
	}
	if table == "" {
		table = DefaultTable
	}
	if !sqlutil.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		db:      db,
		table:   table,
		quoted:  sqlutil.QuoteIdentifier(table),
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Open connects with the MySQL driver, optionally instrumented by otelsql,
// and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *logging.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("audit DSN is required")
	}
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	var (
		db       *sql.DB
		statsReg interface{ Unregister() error }
	)
	if cfg.Metrics || cfg.Tracing {
		opts := []otelsql.Option{otelsql.WithAttributes(semconv.DBSystemMySQL)}
		if cfg.Tracing {
			opts = append(opts, otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}))
		}
		db, err = otelsql.Open("mysql", dsn, opts...)
		if err != nil {
			return nil, err
		}
		if cfg.Metrics {
			statsReg, err = otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemMySQL))
			if err != nil && logger != nil {
				logger.Warn("failed to register audit DB stats metrics", slog.String("error", err.Error()))
			}
		}
	} else {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
	}

	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	store, err := New(db, cfg.Table, cfg.Timeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.statsReg = statsReg

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("audit database unreachable: %w", err)
	}
	if cfg.CreateTable {
		if err := store.EnsureTable(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// Table returns the unquoted table name.
func (s *Store) Table() string {
	return s.table
}

// EnsureTable creates the audit table when it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	ddl := "CREATE TABLE IF NOT EXISTS " + s.quoted + " (" +
		"`id` CHAR(36) NOT NULL PRIMARY KEY, " +
		"`tool` VARCHAR(128) NOT NULL, " +
		"`resolver` VARCHAR(128) NOT NULL DEFAULT '', " +
		"`query_hash` CHAR(64) NOT NULL DEFAULT '', " +
		"`status` VARCHAR(16) NOT NULL, " +
		"`error_kind` VARCHAR(32) NOT NULL DEFAULT '', " +
		"`duration_ms` BIGINT NOT NULL, " +
		"`created_at` DATETIME(6) NOT NULL, " +
		"KEY `idx_created_at` (`created_at`))"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create audit table %s: %w", s.table, err)
	}
	return nil
}

// Record inserts e. ID and CreatedAt are filled when empty. The insert
// outlives cancellation of ctx but is bounded by the store timeout.
func (s *Store) Record(ctx context.Context, e Entry) {
	if s == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	query, args, err := s.insertSQL(e)
	if err != nil {
		s.logger.Error("failed to build audit insert", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Warn("failed to write audit entry",
			slog.String("tool", e.Tool),
			slog.String("audit_id", e.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) insertSQL(e Entry) (string, []any, error) {
	return sq.Insert(s.quoted).
		Columns(sqlutil.QuoteIdentifiers(columns)...).
		Values(e.ID, e.Tool, e.Resolver, e.QueryHash, e.Status, e.ErrorKind, e.Duration.Milliseconds(), e.CreatedAt).
		PlaceholderFormat(sq.Question).
		ToSql()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := sq.Select(sqlutil.QuoteIdentifiers(columns)...).
		From(s.quoted).
		OrderBy(sqlutil.QuoteIdentifier("created_at") + " DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.Tool, &e.Resolver, &e.QueryHash, &e.Status, &e.ErrorKind, &durationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks the database within the store timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close releases the pool and any registered stats callbacks.
func (s *Store) Close() error {
	if s.statsReg != nil {
		_ = s.statsReg.Unregister()
	}
	return s.db.Close()
}

// normalizeDSN turns on parseTime so created_at scans into time.Time.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid audit DSN: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}
