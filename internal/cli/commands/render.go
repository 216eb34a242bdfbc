package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/canvasql/internal/executor"
)

// renderResult writes an execution result in the requested format.
func renderResult(w io.Writer, res *executor.Result, format string) error {
	if !res.IsQuery() {
		fmt.Fprintf(w, "%d row(s) affected in %s\n", res.RowsAffected, res.Elapsed.Round(time.Millisecond))
		return nil
	}

	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "", "table":
		renderTable(w, res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, res *executor.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range res.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
}

func renderJSON(w io.Writer, res *executor.Result) error {
	records := make([]map[string]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		rec := make(map[string]string, len(res.Columns))
		for i, c := range res.Columns {
			rec[c] = r[i]
		}
		records = append(records, rec)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderCSV(w io.Writer, res *executor.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, r := range res.Rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
