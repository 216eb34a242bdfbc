package sqlgen

import (
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

// Generator assembles complete SQL statements from a graph model and
// clause state. Generation is full and non-incremental: no diffing against
// previous output, and two calls with unchanged inputs produce identical
// text.
type Generator struct {
	model   *graph.Model
	clauses *ClauseState
}

// NewGenerator creates a generator over the given model and clause state.
func NewGenerator(model *graph.Model, clauses *ClauseState) *Generator {
	return &Generator{model: model, clauses: clauses}
}

// Generate builds the statement for the current operation mode, applies
// the linked-server identifier rewrite, and prefixes any CTE definitions.
// The result is always displayable text; DML problems degrade to SQL
// comment lines rather than errors.
func (g *Generator) Generate() string {
	var lines []string

	switch g.clauses.mode {
	case ModeInsert, ModeUpdate, ModeDelete:
		lines = translateDML(g.model, g.clauses)
	default:
		lines = g.generateSelect()
	}

	lines = RewriteLinkedServers(lines, g.clauses.linkedServers)
	statement := strings.Join(lines, "\n")
	if g.clauses.mode == ModeSelect && (g.model.NodeCount() > 0 || g.clauses.importedBody != "") {
		statement = AppendCombine(statement, g.clauses.combineOp, g.clauses.combineQuery)
	}
	return InlineCTEs(g.clauses.ctes, statement)
}

func (g *Generator) generateSelect() []string {
	// An imported statement is retained as literal text; it wins over an
	// empty canvas so re-imported SQL round-trips.
	if g.model.NodeCount() == 0 {
		if body := g.clauses.importedBody; body != "" {
			return strings.Split(body, "\n")
		}
		return []string{"-- no data sources on canvas"}
	}
	return assembleSelect(g.model.Nodes(), g.model.Joins(), g.clauses, nil)
}
