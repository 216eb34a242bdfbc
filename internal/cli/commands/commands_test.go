package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/internal/cli/config"
	"github.com/leapstack-labs/canvasql/internal/session"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeCanvas(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand("1.2.3"))
	require.NoError(t, err)
	assert.Contains(t, out, "CanvaSQL v1.2.3")
}

func TestCompileCommand(t *testing.T) {
	path := writeCanvas(t, `
nodes:
  - id: A
    columns: [id, name]
    selected: [id]
  - id: B
    columns: [aid]
joins:
  - left: A
    right: B
    on: A.id=B.aid
`)
	out, err := execute(t, NewCompileCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT A.id\nFROM A\nINNER JOIN B ON A.id=B.aid")
}

func TestCompileCommand_DegradationStillCompiles(t *testing.T) {
	path := writeCanvas(t, `
mode: UPDATE
nodes:
  - id: S
    columns: [v]
`)
	out, err := execute(t, NewCompileCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, out, "-- DML generation requires a designated target table")
}

func TestCompileCommand_MissingFile(t *testing.T) {
	_, err := execute(t, NewCompileCommand(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	good := writeCanvas(t, "nodes:\n  - id: A\n    columns: [id]\n")
	out, err := execute(t, NewValidateCommand(), good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestValidateCommand_InvalidFails(t *testing.T) {
	// Empty canvas compiles to a comment, which fails the syntax check.
	empty := writeCanvas(t, "nodes: []\n")
	_, err := execute(t, NewValidateCommand(), empty)
	require.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "starter.yaml")
	out, err := execute(t, NewInitCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	compiled, err := execute(t, NewCompileCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, compiled, "FROM orders")
	assert.Contains(t, compiled, "INNER JOIN customers ON orders.customer_id=customers.id")

	_, err = execute(t, NewInitCommand(), path)
	require.Error(t, err)
}

func TestApplyEditLine_BuildsCanvas(t *testing.T) {
	s := session.New(session.Config{})
	defer s.Close()

	steps := []string{
		"node A id,name",
		"node B aid",
		"join A B inner A.id=B.aid",
		"select A id",
		"where B.aid = 7",
		"limit 5",
	}
	for _, step := range steps {
		require.NoError(t, applyEditLine(s, step), step)
	}
	assert.Equal(t,
		"SELECT A.id\nFROM A\nINNER JOIN B ON A.id=B.aid\nWHERE B.aid = '7'\nLIMIT 5",
		s.SQL())
}

func TestApplyEditLine_CombineQuery(t *testing.T) {
	s := session.New(session.Config{})
	defer s.Close()

	require.NoError(t, applyEditLine(s, "node A id"))
	require.NoError(t, applyEditLine(s, "combine union all SELECT id FROM archive"))
	assert.Equal(t, "SELECT *\nFROM A\nUNION ALL\n(\nSELECT id FROM archive\n)", s.SQL())

	require.NoError(t, applyEditLine(s, "combine"))
	assert.Equal(t, "SELECT *\nFROM A", s.SQL())
}

func TestApplyEditLine_Errors(t *testing.T) {
	s := session.New(session.Config{})
	defer s.Close()

	tests := []string{
		"bogus",
		"node",
		"join A B SIDEWAYS 1=1",
		"rm missing",
		"limit notanumber",
		"combine minus SELECT 1",
	}
	for _, line := range tests {
		assert.Error(t, applyEditLine(s, line), line)
	}
}

func TestApplyEditLine_DMLFlow(t *testing.T) {
	s := session.New(session.Config{})
	defer s.Close()

	steps := []string{
		"node S v",
		"node T id,val",
		"target T",
		"map S.v T.val",
		"mode UPDATE",
	}
	for _, step := range steps {
		require.NoError(t, applyEditLine(s, step), step)
	}
	assert.Contains(t, s.SQL(), "UPDATE T")
	assert.Contains(t, s.SQL(), "SET val=src.v")
}
