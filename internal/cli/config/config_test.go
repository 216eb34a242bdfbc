package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	ResetConfig()
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultCanvas, cfg.Canvas)
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.AutoGenerate)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	ResetConfig()
	path := filepath.Join(t.TempDir(), "canvasql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
canvas: my.yaml
debounce_ms: 700
target:
  type: sqlite
  database: warehouse.db
linked_servers:
  X: LS1
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "my.yaml", cfg.Canvas)
	assert.Equal(t, 700, cfg.DebounceMS)
	assert.Equal(t, map[string]string{"X": "LS1"}, cfg.LinkedServers)

	target, ok := cfg.ExecTarget()
	require.True(t, ok)
	assert.Equal(t, "sqlite", target.Type)
	assert.Equal(t, "warehouse.db", target.Database)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	path := filepath.Join(t.TempDir(), "canvasql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas: from-file.yaml\n"), 0o644))
	t.Setenv("CANVASQL_CANVAS", "from-env.yaml")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", cfg.Canvas)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	ResetConfig()
	t.Setenv("CANVASQL_CANVAS", "from-env.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("canvas", "", "")
	require.NoError(t, flags.Set("canvas", "from-flag.yaml"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.yaml", cfg.Canvas)
}

func TestSessionConfig(t *testing.T) {
	cfg := &Config{DebounceMS: 600, AutoGenerate: true}
	sc := cfg.SessionConfig()
	assert.Equal(t, 600*time.Millisecond, sc.Debounce)
	assert.False(t, sc.ManualGenerate)
}

func TestExecTarget_None(t *testing.T) {
	cfg := &Config{}
	_, ok := cfg.ExecTarget()
	assert.False(t, ok)
}
