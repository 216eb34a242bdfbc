package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/discovery"
	"github.com/leapstack-labs/canvasql/internal/executor"
	"github.com/leapstack-labs/canvasql/internal/state"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [canvas-file]",
		Short: "Compile a canvas file and execute the SQL",
		Long: `Compile a canvas file, execute the generated statement against the
configured target, and render the result. Every execution is recorded
in the run history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			logger := commandLogger(cfg)

			target, ok := cfg.ExecTarget()
			if !ok {
				return errors.New("no execution target configured (set target.type in canvasql.yaml)")
			}

			s, err := loadSession(cfg, canvasPath(cfg, args))
			if err != nil {
				return err
			}
			defer s.Close()

			exec, err := executor.Open(cmd.Context(), target, logger)
			if err != nil {
				return err
			}
			defer func() { _ = exec.Close() }()

			if discover, _ := cmd.Flags().GetBool("discover"); discover {
				d := discovery.New(exec, logger)
				if _, err := d.Run(cmd.Context(), s); err != nil {
					return err
				}
				s.Regenerate()
			}

			sqlText := s.SQL()
			if strings.HasPrefix(strings.TrimSpace(sqlText), "--") {
				return fmt.Errorf("nothing to execute:\n%s", sqlText)
			}

			store, err := state.Open(cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runID, err := store.StartRun(cmd.Context(), s.Mode().String(), sqlText)
			if err != nil {
				return err
			}

			res, err := exec.Run(cmd.Context(), sqlText)
			if err != nil {
				_ = store.FinishRun(cmd.Context(), runID, 0, err.Error())
				return err
			}
			count := res.RowsAffected
			if res.IsQuery() {
				count = int64(len(res.Rows))
			}
			if err := store.FinishRun(cmd.Context(), runID, count, ""); err != nil {
				return err
			}

			return renderResult(cmd.OutOrStdout(), res, outputFormat(cmd, cfg))
		},
	}

	cmd.Flags().Bool("discover", false, "Resolve missing column lists from the target catalog first")
	cmd.Flags().String("format", "", "Output format (table|json|csv)")
	return cmd
}
