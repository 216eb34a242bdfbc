// Package discovery fills in column lists for canvas nodes added with a
// placeholder schema. Lookups run concurrently against the target catalog
// and never block SQL generation; until a lookup lands, the node simply
// contributes no columns.
package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/canvasql/internal/executor"
	"github.com/leapstack-labs/canvasql/internal/session"
)

// DefaultConcurrency bounds the catalog lookup pool.
const DefaultConcurrency = 4

// Discoverer resolves table columns from the executor's catalog.
type Discoverer struct {
	exec        *executor.Executor
	logger      *slog.Logger
	concurrency int
}

// Result summarizes one discovery run.
type Result struct {
	Resolved int
	Missing  []string
	Elapsed  time.Duration
}

// New creates a discoverer over an open executor connection.
func New(exec *executor.Executor, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{exec: exec, logger: logger, concurrency: DefaultConcurrency}
}

// SetConcurrency overrides the pool size. Values below 1 are ignored.
func (d *Discoverer) SetConcurrency(n int) {
	if n >= 1 {
		d.concurrency = n
	}
}

// Run looks up columns for every node whose column list is empty and applies
// the results through SetColumns. Tables missing from the catalog are
// reported, not failed: the canvas keeps working without them.
func (d *Discoverer) Run(ctx context.Context, s *session.Session) (*Result, error) {
	start := time.Now()

	var pending []string
	for _, n := range s.Nodes() {
		if len(n.Columns) == 0 {
			pending = append(pending, n.ID)
		}
	}
	res := &Result{}
	if len(pending) == 0 {
		res.Elapsed = time.Since(start)
		return res, nil
	}

	type found struct {
		id      string
		columns []string
	}
	results := make([]found, len(pending))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.concurrency)
	for i, id := range pending {
		eg.Go(func() error {
			cols, err := d.lookup(egctx, id)
			if err != nil {
				return fmt.Errorf("discovering %s: %w", id, err)
			}
			results[i] = found{id: id, columns: cols}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, f := range results {
		if len(f.columns) == 0 {
			res.Missing = append(res.Missing, f.id)
			d.logger.Warn("table not in catalog", "table", f.id)
			continue
		}
		if err := s.SetColumns(f.id, f.columns); err != nil {
			return nil, err
		}
		res.Resolved++
	}
	res.Elapsed = time.Since(start)
	d.logger.Info("discovery finished", "resolved", res.Resolved, "missing", len(res.Missing))
	return res, nil
}

// lookup queries the catalog for one table. An unknown table yields an
// empty list, not an error.
func (d *Discoverer) lookup(ctx context.Context, table string) ([]string, error) {
	switch d.exec.Target().Type {
	case "sqlite":
		return d.sqliteColumns(ctx, table)
	case "duckdb", "postgres":
		return d.schemaColumns(ctx, table)
	default:
		return nil, fmt.Errorf("unknown target type %q", d.exec.Target().Type)
	}
}

func (d *Discoverer) sqliteColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := d.exec.DB().QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (d *Discoverer) schemaColumns(ctx context.Context, table string) ([]string, error) {
	schema := "main"
	if d.exec.Target().Type == "postgres" {
		schema = "public"
	}
	name := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema, name = parts[0], parts[1]
	}

	rows, err := d.exec.DB().QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
