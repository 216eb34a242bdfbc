package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

func buildModel(t *testing.T, ids []string, joins []graph.JoinEdge) *graph.Model {
	t.Helper()
	m := graph.NewModel()
	for _, id := range ids {
		require.NoError(t, m.AddNode(id, graph.KindTable, []string{"id"}))
	}
	for _, j := range joins {
		require.NoError(t, m.AddJoinEdge(j.A, j.B, j.Type, j.Condition))
	}
	return m
}

func TestBuildFrom_SingleNode(t *testing.T) {
	m := buildModel(t, []string{"A"}, nil)
	lines := BuildFrom(m.Nodes(), m.Joins())
	assert.Equal(t, []string{"FROM A"}, lines)
}

func TestBuildFrom_Tree(t *testing.T) {
	// A tree with N nodes and N-1 edges visits every node exactly once
	// and emits exactly N-1 JOIN lines.
	m := buildModel(t, []string{"A", "B", "C", "D"}, []graph.JoinEdge{
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
		{A: "A", B: "C", Type: graph.JoinLeft, Condition: "A.id=C.aid"},
		{A: "B", B: "D", Type: graph.JoinRight, Condition: "B.id=D.bid"},
	})

	lines := BuildFrom(m.Nodes(), m.Joins())
	require.Len(t, lines, 4)
	assert.Equal(t, "FROM A", lines[0])

	joinCount := 0
	seen := map[string]int{"A": 1}
	for _, l := range lines[1:] {
		assert.Contains(t, l, " JOIN ")
		joinCount++
		fields := strings.Fields(l)
		seen[fields[2]]++
	}
	assert.Equal(t, 3, joinCount)
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 1, seen[id], "node %s visited once", id)
	}
}

func TestBuildFrom_BFSOrder(t *testing.T) {
	// Breadth-first: both of A's neighbors appear before B's neighbor.
	m := buildModel(t, []string{"A", "B", "C", "D"}, []graph.JoinEdge{
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
		{A: "A", B: "C", Type: graph.JoinInner, Condition: "A.id=C.aid"},
		{A: "B", B: "D", Type: graph.JoinInner, Condition: "B.id=D.bid"},
	})

	lines := BuildFrom(m.Nodes(), m.Joins())
	assert.Equal(t, []string{
		"FROM A",
		"INNER JOIN B ON A.id=B.aid",
		"INNER JOIN C ON A.id=C.aid",
		"INNER JOIN D ON B.id=D.bid",
	}, lines)
}

func TestBuildFrom_TieBreakByEdgeInsertionOrder(t *testing.T) {
	// Two edges incident to A; the earlier-inserted edge discovers first.
	m := buildModel(t, []string{"A", "C", "B"}, []graph.JoinEdge{
		{A: "A", B: "C", Type: graph.JoinInner, Condition: "A.id=C.aid"},
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
	})

	lines := BuildFrom(m.Nodes(), m.Joins())
	assert.Equal(t, []string{
		"FROM A",
		"INNER JOIN C ON A.id=C.aid",
		"INNER JOIN B ON A.id=B.aid",
	}, lines)
}

func TestBuildFrom_CycleVisitsOnce(t *testing.T) {
	m := buildModel(t, []string{"A", "B", "C"}, []graph.JoinEdge{
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
		{A: "B", B: "C", Type: graph.JoinInner, Condition: "B.id=C.bid"},
		{A: "C", B: "A", Type: graph.JoinInner, Condition: "C.id=A.cid"},
	})

	lines := BuildFrom(m.Nodes(), m.Joins())
	// Cycle-closing edge emits no line; every node appears once.
	require.Len(t, lines, 3)
	assert.Equal(t, "FROM A", lines[0])
}

func TestBuildFrom_DisconnectedComponents(t *testing.T) {
	// Two components yield two concatenated FROM blocks. Not valid SQL on
	// its own, but preserved behavior.
	m := buildModel(t, []string{"A", "B", "X", "Y"}, []graph.JoinEdge{
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
		{A: "X", B: "Y", Type: graph.JoinLeft, Condition: "X.id=Y.xid"},
	})

	lines := BuildFrom(m.Nodes(), m.Joins())
	assert.Equal(t, []string{
		"FROM A",
		"INNER JOIN B ON A.id=B.aid",
		"FROM X",
		"LEFT JOIN Y ON X.id=Y.xid",
	}, lines)
}

func TestBuildFrom_ExcludedNodeIgnoresItsEdges(t *testing.T) {
	m := buildModel(t, []string{"A", "B", "T"}, []graph.JoinEdge{
		{A: "A", B: "B", Type: graph.JoinInner, Condition: "A.id=B.aid"},
		{A: "B", B: "T", Type: graph.JoinInner, Condition: "B.id=T.bid"},
	})

	var sources []*graph.Node
	for _, n := range m.Nodes() {
		if n.ID != "T" {
			sources = append(sources, n)
		}
	}

	lines := BuildFrom(sources, m.Joins())
	assert.Equal(t, []string{
		"FROM A",
		"INNER JOIN B ON A.id=B.aid",
	}, lines)
}
