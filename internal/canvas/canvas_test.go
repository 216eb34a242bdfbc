package canvas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/internal/session"
)

const sampleCanvas = `
mode: SELECT
nodes:
  - id: A
    columns: [id, name]
    selected: [id, name]
  - id: B
    columns: [aid, amount]
joins:
  - left: A
    right: B
    type: INNER
    on: A.id=B.aid
where:
  - column: B.amount
    operator: ">"
    value: "100"
`

func TestParseAndApply(t *testing.T) {
	doc, err := Parse([]byte(sampleCanvas))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)

	s := session.New(session.Config{})
	defer s.Close()
	require.NoError(t, Apply(doc, s))

	assert.Equal(t,
		"SELECT A.id, A.name\nFROM A\nINNER JOIN B ON A.id=B.aid\nWHERE B.amount > '100'",
		s.SQL())
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("nodes: []\nbogus: 1\n"))
	require.Error(t, err)
}

func TestApply_UnknownJoinType(t *testing.T) {
	doc := &Document{
		Nodes: []Node{{ID: "A"}, {ID: "B"}},
		Joins: []Join{{Left: "A", Right: "B", Type: "CROSS", On: "1=1"}},
	}
	s := session.New(session.Config{})
	defer s.Close()
	err := Apply(doc, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown join type")
}

func TestApply_CombineDocument(t *testing.T) {
	doc, err := Parse([]byte(`
nodes:
  - id: orders
    columns: [id]
    selected: [id]
combine:
  operator: UNION ALL
  query: SELECT id FROM archived_orders
`))
	require.NoError(t, err)

	s := session.New(session.Config{})
	defer s.Close()
	require.NoError(t, Apply(doc, s))

	assert.Equal(t,
		"SELECT orders.id\nFROM orders\nUNION ALL\n(\nSELECT id FROM archived_orders\n)",
		s.SQL())
}

func TestApply_UnknownCombineOperator(t *testing.T) {
	doc := &Document{
		Nodes:   []Node{{ID: "A", Columns: []string{"id"}}},
		Combine: &Combine{Operator: "MINUS", Query: "SELECT 1"},
	}
	s := session.New(session.Config{})
	defer s.Close()
	err := Apply(doc, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown set operator")
}

func TestApply_DMLDocument(t *testing.T) {
	doc := &Document{
		Mode:   "UPDATE",
		Nodes:  []Node{{ID: "S", Columns: []string{"v"}}, {ID: "T", Columns: []string{"id", "val"}}},
		Target: "T",
		Mappings: []Mapping{
			{Source: "S.v", Target: "T.val"},
		},
	}
	s := session.New(session.Config{})
	defer s.Close()
	require.NoError(t, Apply(doc, s))
	assert.Equal(t,
		"UPDATE T\nSET val=src.v\nFROM (SELECT S.v, id\nFROM S) AS src\nWHERE T.id=src.id",
		s.SQL())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := &Document{
		Mode:  "SELECT",
		Nodes: []Node{{ID: "A", Columns: []string{"id"}, Selected: []string{"id"}}},
		CTEs:  []CTE{{Name: "recent", Body: "SELECT * FROM orders"}},
		Limit: 10,
	}
	path := filepath.Join(t.TempDir(), "canvas.yaml")
	require.NoError(t, Save(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestCompile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCanvas), 0o644))

	out, err := Compile(path, session.Config{})
	require.NoError(t, err)
	assert.Contains(t, out, "FROM A\nINNER JOIN B ON A.id=B.aid")
}
