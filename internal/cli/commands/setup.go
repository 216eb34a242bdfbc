package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/canvas"
	"github.com/leapstack-labs/canvasql/internal/cli/config"
	"github.com/leapstack-labs/canvasql/internal/session"
)

// getConfig returns the loaded config, falling back to defaults when a
// command runs outside the root command's PersistentPreRunE (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		return &config.Config{
			Canvas:       config.DefaultCanvas,
			StatePath:    config.DefaultStatePath,
			OutputFormat: config.DefaultOutput,
			AutoGenerate: true,
		}
	}
	return cfg
}

// loadSession builds a session from the configured canvas file. An empty
// path yields an empty session.
func loadSession(cfg *config.Config, canvasPath string) (*session.Session, error) {
	s := session.New(cfg.SessionConfig())
	if len(cfg.LinkedServers) > 0 {
		if err := s.SetLinkedServerMap(cfg.LinkedServers); err != nil {
			s.Close()
			return nil, err
		}
	}
	if canvasPath == "" {
		return s, nil
	}
	doc, err := canvas.Load(canvasPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := canvas.Apply(doc, s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// canvasPath resolves the canvas file for a command: positional argument
// wins over the configured path.
func canvasPath(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Canvas
}

func commandLogger(cfg *config.Config) *slog.Logger {
	return cfg.Logger()
}

// outputFormat resolves the row rendering format for a command.
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	if cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return config.DefaultOutput
}
