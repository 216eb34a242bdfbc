// Package executor runs generated SQL against a configured database target.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/canvasql/pkg/parser"
	"github.com/leapstack-labs/canvasql/pkg/token"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver
)

// Target describes the database a session executes against.
type Target struct {
	// Type is one of sqlite, duckdb, postgres.
	Type string
	// Database is the file path for sqlite/duckdb (":memory:" when empty).
	Database string
	// DSN is the postgres connection string.
	DSN string
}

// Executor wraps one open connection.
type Executor struct {
	db     *sql.DB
	target Target
	logger *slog.Logger
}

// Result holds the outcome of one executed statement. Rows is populated for
// queries, RowsAffected for everything else.
type Result struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
	Elapsed      time.Duration
}

// IsQuery reports whether the result carries a row set.
func (r *Result) IsQuery() bool { return r.Columns != nil }

// Open connects to the target and verifies the connection.
func Open(ctx context.Context, target Target, logger *slog.Logger) (*Executor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var driver, dsn string
	switch target.Type {
	case "sqlite":
		driver, dsn = "sqlite", target.Database
	case "duckdb":
		driver, dsn = "duckdb", target.Database
	case "postgres":
		driver, dsn = "pgx", target.DSN
	default:
		return nil, fmt.Errorf("unknown target type %q", target.Type)
	}
	if dsn == "" && target.Type != "postgres" {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", target.Type, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s: %w", target.Type, err)
	}
	logger.Debug("connected", "type", target.Type)
	return &Executor{db: db, target: target, logger: logger}, nil
}

// NewWithDB wraps an already open connection. The caller keeps ownership of
// closing semantics through Close.
func NewWithDB(db *sql.DB, target Target, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, target: target, logger: logger}
}

// Close releases the connection.
func (e *Executor) Close() error { return e.db.Close() }

// DB exposes the underlying connection for catalog queries.
func (e *Executor) DB() *sql.DB { return e.db }

// Target returns the configured target.
func (e *Executor) Target() Target { return e.target }

// Run executes one statement, routing on its leading keyword: SELECT and
// WITH go through Query, everything else through Exec.
func (e *Executor) Run(ctx context.Context, sqlText string) (*Result, error) {
	start := time.Now()
	if isRowReturning(sqlText) {
		res, err := e.query(ctx, sqlText)
		if err != nil {
			return nil, err
		}
		res.Elapsed = time.Since(start)
		e.logger.Info("query executed", "rows", len(res.Rows), "elapsed", res.Elapsed)
		return res, nil
	}

	sr, err := e.db.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	affected, err := sr.RowsAffected()
	if err != nil {
		affected = 0
	}
	res := &Result{RowsAffected: affected, Elapsed: time.Since(start)}
	e.logger.Info("statement executed", "affected", affected, "elapsed", res.Elapsed)
	return res, nil
}

func (e *Executor) query(ctx context.Context, sqlText string) (*Result, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return res, nil
}

// isRowReturning looks at the first real token, skipping comments.
func isRowReturning(sqlText string) bool {
	toks, err := parser.Tokenize(sqlText)
	if err != nil || len(toks) == 0 {
		return false
	}
	switch toks[0].Type {
	case token.SELECT, token.WITH:
		return true
	}
	return false
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
