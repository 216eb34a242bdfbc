package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

func TestRewriteLinkedServers_ThreePartName(t *testing.T) {
	servers := map[string]string{"X": "LS1"}
	lines := []string{
		"SELECT X.db1.tbl1.col",
		"FROM X.db1.tbl1",
	}

	out := RewriteLinkedServers(lines, servers)
	assert.Equal(t, "SELECT X.db1.tbl1.col", out[0])
	assert.Equal(t, "FROM [LS1].[db1].dbo.[tbl1]", out[1])
}

func TestRewriteLinkedServers_UnmappedAliasUntouched(t *testing.T) {
	servers := map[string]string{"X": "LS1"}
	lines := []string{
		"FROM X.db1.tbl1",
		"INNER JOIN Y.db2.tbl2 ON X.db1.tbl1.id=Y.db2.tbl2.xid",
	}

	out := RewriteLinkedServers(lines, servers)
	assert.Equal(t, "FROM [LS1].[db1].dbo.[tbl1]", out[0])
	assert.Equal(t, "INNER JOIN Y.db2.tbl2 ON X.db1.tbl1.id=Y.db2.tbl2.xid", out[1])
}

func TestRewriteLinkedServers_OnlyFromAndJoinLines(t *testing.T) {
	servers := map[string]string{"X": "LS1"}
	lines := []string{
		"SELECT *",
		"WHERE X.db1.tbl1 = 'x'",
		"GROUP BY X.db1.tbl1",
	}

	out := RewriteLinkedServers(lines, servers)
	assert.Equal(t, lines, out)
}

func TestRewriteLinkedServers_ChainLengthMustBeThree(t *testing.T) {
	servers := map[string]string{"X": "LS1"}
	lines := []string{
		"FROM X.tbl1",
		"FROM X.db1.tbl1.extra",
	}

	out := RewriteLinkedServers(lines, servers)
	assert.Equal(t, "FROM X.tbl1", out[0])
	assert.Equal(t, "FROM X.db1.tbl1.extra", out[1])
}

func TestRewriteLinkedServers_MultipleRefsOneLine(t *testing.T) {
	servers := map[string]string{"X": "LS1", "Z": "LS2"}
	line := "INNER JOIN X.db1.tbl1 ON a.id=Z.db3.tbl3"

	out := RewriteLinkedServers([]string{line}, servers)
	assert.Equal(t, "INNER JOIN [LS1].[db1].dbo.[tbl1] ON a.id=[LS2].[db3].dbo.[tbl3]", out[0])
}

func TestRewriteLinkedServers_InsideSubselectLine(t *testing.T) {
	servers := map[string]string{"X": "LS1"}
	lines := []string{"FROM X.db1.tbl1) AS src"}

	out := RewriteLinkedServers(lines, servers)
	assert.Equal(t, "FROM [LS1].[db1].dbo.[tbl1]) AS src", out[0])
}

func TestRewriteLinkedServers_EmptyMap(t *testing.T) {
	lines := []string{"FROM X.db1.tbl1"}
	out := RewriteLinkedServers(lines, nil)
	assert.Equal(t, lines, out)
}

func TestGenerate_LinkedServerRewrite(t *testing.T) {
	m := graph.NewModel()
	require.NoError(t, m.AddNode("X.db1.tbl1", graph.KindTable, []string{"id"}))
	require.NoError(t, m.AddNode("Y.db2.tbl2", graph.KindTable, []string{"xid"}))
	require.NoError(t, m.AddJoinEdge("X.db1.tbl1", "Y.db2.tbl2", graph.JoinInner,
		"X.db1.tbl1.id=Y.db2.tbl2.xid"))

	c := NewClauseState()
	c.SetLinkedServers(map[string]string{"X": "LS1"})

	out := NewGenerator(m, c).Generate()
	assert.Contains(t, out, "FROM [LS1].[db1].dbo.[tbl1]")
	assert.Contains(t, out, "INNER JOIN Y.db2.tbl2 ON")
	assert.NotContains(t, out, "FROM X.db1.tbl1")
}
