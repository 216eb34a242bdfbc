package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

// dmlModel builds a source node S joined to nothing, plus a target node T
// with a single mapping S.v -> T.val.
func dmlModel(t *testing.T) *graph.Model {
	t.Helper()
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id", "v"}))
	require.NoError(t, m.AddNode("T", graph.KindTable, []string{"id", "val"}))
	require.NoError(t, m.SetTarget("T"))
	require.NoError(t, m.AddMappingEdge("S.v", "T.val"))
	return m
}

func TestGenerate_Update(t *testing.T) {
	m := dmlModel(t)
	c := NewClauseState()
	c.SetMode(ModeUpdate)

	out := NewGenerator(m, c).Generate()
	assert.Equal(t,
		"UPDATE T\n"+
			"SET val=src.v\n"+
			"FROM (SELECT S.v, id\n"+
			"FROM S) AS src\n"+
			"WHERE T.id=src.id",
		out)
}

func TestGenerate_Update_SkipsIDMappingInSet(t *testing.T) {
	m := dmlModel(t)
	require.NoError(t, m.AddMappingEdge("S.id", "T.id"))

	c := NewClauseState()
	c.SetMode(ModeUpdate)

	out := NewGenerator(m, c).Generate()
	assert.Contains(t, out, "SET val=src.v\n")
	assert.NotContains(t, out, "id=src.id,")
	assert.Contains(t, out, "WHERE T.id=src.id")
}

func TestGenerate_Update_OnlyIDMappingDegrades(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id"}))
	require.NoError(t, m.AddNode("T", graph.KindTable, []string{"id"}))
	require.NoError(t, m.SetTarget("T"))
	require.NoError(t, m.AddMappingEdge("S.id", "T.id"))

	c := NewClauseState()
	c.SetMode(ModeUpdate)

	out := NewGenerator(m, c).Generate()
	assert.True(t, strings.HasPrefix(out, "--"), "expected comment, got %q", out)
}

func TestGenerate_Insert(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id", "v", "w"}))
	require.NoError(t, m.AddNode("staging.db1.target", graph.KindTable, []string{"id", "val", "other"}))
	require.NoError(t, m.SetTarget("staging.db1.target"))
	require.NoError(t, m.AddMappingEdge("S.v", "staging.db1.target.val"))
	require.NoError(t, m.AddMappingEdge("S.w", "staging.db1.target.other"))

	c := NewClauseState()
	c.SetMode(ModeInsert)

	out := NewGenerator(m, c).Generate()
	assert.Equal(t,
		"INSERT INTO db1.target (val, other)\n"+
			"SELECT S.v, S.w\n"+
			"FROM S",
		out)
}

func TestGenerate_Insert_TargetColumnsInEdgeOrder(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"a", "b", "c"}))
	require.NoError(t, m.AddNode("T", graph.KindTable, []string{"x", "y", "z"}))
	require.NoError(t, m.SetTarget("T"))
	// Deliberately not in column order; edge-creation order wins.
	require.NoError(t, m.AddMappingEdge("S.c", "T.z"))
	require.NoError(t, m.AddMappingEdge("S.a", "T.x"))

	c := NewClauseState()
	c.SetMode(ModeInsert)

	out := NewGenerator(m, c).Generate()
	assert.Contains(t, out, "INSERT INTO T (z, x)")
	assert.Contains(t, out, "SELECT S.c, S.a")
}

func TestGenerate_Delete(t *testing.T) {
	m := dmlModel(t)
	c := NewClauseState()
	c.SetMode(ModeDelete)

	out := NewGenerator(m, c).Generate()
	assert.Equal(t,
		"DELETE FROM T\n"+
			"WHERE id IN (SELECT id\n"+
			"FROM S)",
		out)
}

func TestGenerate_DML_FiltersApplyToSubselect(t *testing.T) {
	m := dmlModel(t)
	c := NewClauseState()
	c.SetMode(ModeDelete)
	c.AddPredicate(ClauseWhere, "S.v", "=", "stale")

	out := NewGenerator(m, c).Generate()
	assert.Contains(t, out, "FROM S\nWHERE S.v = 'stale')")
}

func TestGenerate_DML_NoTargetDegrades(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id"}))

	for _, mode := range []Mode{ModeInsert, ModeUpdate, ModeDelete} {
		c := NewClauseState()
		c.SetMode(mode)
		out := NewGenerator(m, c).Generate()
		assert.Equal(t, commentNoTarget, out, "mode %s", mode)
	}
}

func TestGenerate_DML_NoMappingDegrades(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id"}))
	require.NoError(t, m.AddNode("T", graph.KindTable, []string{"id"}))
	require.NoError(t, m.SetTarget("T"))

	c := NewClauseState()
	c.SetMode(ModeInsert)
	out := NewGenerator(m, c).Generate()
	assert.Equal(t, commentNoMapping, out)
}

func TestGenerate_DML_TargetExcludedFromSubselect(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("A", graph.KindTable, []string{"id", "v"}))
	require.NoError(t, m.AddNode("B", graph.KindTable, []string{"id", "aid"}))
	require.NoError(t, m.AddNode("T", graph.KindTable, []string{"id", "val"}))
	require.NoError(t, m.AddJoinEdge("A", "B", graph.JoinInner, "A.id=B.aid"))
	require.NoError(t, m.AddJoinEdge("B", "T", graph.JoinInner, "B.id=T.bid"))
	require.NoError(t, m.SetTarget("T"))
	require.NoError(t, m.AddMappingEdge("A.v", "T.val"))

	c := NewClauseState()
	c.SetMode(ModeInsert)

	out := NewGenerator(m, c).Generate()
	assert.Contains(t, out, "FROM A\nINNER JOIN B ON A.id=B.aid")
	assert.NotContains(t, out, "JOIN T")
}

func TestGenerate_RetargetReplacesPrevious(t *testing.T) {
	// Output never mixes columns of two different targets.
	m := graph.NewModel()
	require.NoError(t, m.AddNode("S", graph.KindTable, []string{"id", "v"}))
	require.NoError(t, m.AddNode("T1", graph.KindTable, []string{"id", "a"}))
	require.NoError(t, m.AddNode("T2", graph.KindTable, []string{"id", "b"}))
	require.NoError(t, m.SetTarget("T1"))
	require.NoError(t, m.AddMappingEdge("S.v", "T1.a"))

	c := NewClauseState()
	c.SetMode(ModeUpdate)
	g := NewGenerator(m, c)
	first := g.Generate()
	assert.Contains(t, first, "UPDATE T1")
	assert.Contains(t, first, "SET a=src.v")

	// Retarget: previous mappings reference T1 and are dropped with it.
	require.NoError(t, m.SetTarget("T2"))
	require.NoError(t, m.AddMappingEdge("S.v", "T2.b"))

	second := g.Generate()
	assert.Contains(t, second, "UPDATE T2")
	assert.Contains(t, second, "SET b=src.v")
	assert.NotContains(t, second, "T1")
	assert.NotContains(t, second, "a=src")
}

func TestDMLTableName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"T", "T"},
		{"db.table", "db.table"},
		{"alias.db.table", "db.table"},
		{"x.alias.db.table", "db.table"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dmlTableName(tt.id), tt.id)
	}
}
