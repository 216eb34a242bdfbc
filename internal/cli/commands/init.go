package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/canvas"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [canvas-file]",
		Short: "Write a starter canvas file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			path := canvasPath(cfg, args)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			doc := &canvas.Document{
				Mode: "SELECT",
				Nodes: []canvas.Node{
					{ID: "orders", Columns: []string{"id", "customer_id", "total"},
						Selected: []string{"id", "total"}},
					{ID: "customers", Columns: []string{"id", "name"},
						Selected: []string{"name"}},
				},
				Joins: []canvas.Join{
					{Left: "orders", Right: "customers", Type: "INNER",
						On: "orders.customer_id=customers.id"},
				},
				Where: []canvas.Predicate{
					{Column: "orders.total", Operator: ">", Value: "0"},
				},
			}
			if err := canvas.Save(path, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}
