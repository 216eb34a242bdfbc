// Package config provides configuration management for the CanvaSQL CLI.
package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/canvasql/internal/executor"
	"github.com/leapstack-labs/canvasql/internal/session"
)

// Default values applied before any config file, env var, or flag.
const (
	DefaultCanvas     = "canvas.yaml"
	DefaultStatePath  = "canvasql.db"
	DefaultOutput     = "table"
	DefaultPort       = 8765
	DefaultDebounceMS = 500
)

// TargetConfig describes the database generated SQL executes against.
type TargetConfig struct {
	Type     string `koanf:"type"`
	Database string `koanf:"database"`
	DSN      string `koanf:"dsn"`
}

// Config holds all CLI configuration options.
type Config struct {
	Canvas        string            `koanf:"canvas"`
	StatePath     string            `koanf:"state_path"`
	Target        *TargetConfig     `koanf:"target"`
	LinkedServers map[string]string `koanf:"linked_servers"`
	DebounceMS    int               `koanf:"debounce_ms"`
	AutoGenerate  bool              `koanf:"auto_generate"`
	OutputFormat  string            `koanf:"output"`
	Port          int               `koanf:"port"`
	Verbose       bool              `koanf:"verbose"`
}

// SessionConfig translates the CLI config into a session config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Logger:         c.Logger(),
		Debounce:       time.Duration(c.DebounceMS) * time.Millisecond,
		ManualGenerate: !c.AutoGenerate,
	}
}

// ExecTarget translates the target section into an executor target.
// Returns false when no target is configured.
func (c *Config) ExecTarget() (executor.Target, bool) {
	if c.Target == nil || c.Target.Type == "" {
		return executor.Target{}, false
	}
	return executor.Target{
		Type:     c.Target.Type,
		Database: c.Target.Database,
		DSN:      c.Target.DSN,
	}, true
}

// Logger returns a text logger on stderr when verbose, discard otherwise.
func (c *Config) Logger() *slog.Logger {
	if !c.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
