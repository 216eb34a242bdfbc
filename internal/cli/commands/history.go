package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent statement executions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := state.Open(cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Mode", "Status", "Rows", "Started", "Duration"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.ID[:8],
					r.Mode,
					r.Status,
					r.RowCount,
					r.StartedAt.Local().Format(time.DateTime),
					r.Duration().Round(time.Millisecond),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}
