package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/executor"
	"github.com/leapstack-labs/canvasql/internal/server"
	"github.com/leapstack-labs/canvasql/internal/state"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [canvas-file]",
		Short: "Serve the canvas mutation API over HTTP",
		Long: `Start an HTTP server exposing the session mutation surface. When a
canvas file is given it seeds the initial session state. When a target
is configured, POST /run executes the current SQL and records it in
the run history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			logger := commandLogger(cfg)

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			s, err := loadSession(cfg, path)
			if err != nil {
				return err
			}
			defer s.Close()

			srvCfg := server.Config{
				Session: s,
				Port:    cfg.Port,
				Logger:  logger,
			}
			if target, ok := cfg.ExecTarget(); ok {
				exec, err := executor.Open(cmd.Context(), target, logger)
				if err != nil {
					return err
				}
				defer func() { _ = exec.Close() }()
				srvCfg.Executor = exec

				store, err := state.Open(cfg.StatePath)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				srvCfg.Store = store
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				srvCfg.Port = port
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://localhost:%d\n", srvCfg.Port)
			return server.New(srvCfg).Serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (overrides config)")
	return cmd
}
