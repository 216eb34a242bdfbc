package sqlgen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

// DML generation degrades to comment text instead of failing: callers
// always receive something displayable.
const (
	commentNoTarget    = "-- DML generation requires a designated target table"
	commentNoMapping   = "-- DML generation requires at least one column mapping"
	commentNoSetColumn = "-- UPDATE requires at least one mapping to a non-id column"
)

// dmlJoinKey is the fixed join key for UPDATE and DELETE. The column is
// assumed to exist on both the target table and the value sub-select;
// there is no configuration for it.
const dmlJoinKey = "id"

// translateDML emits INSERT, UPDATE, or DELETE text for the current graph.
// The target node is excluded from the join graph used for the value
// sub-select.
func translateDML(model *graph.Model, clauses *ClauseState) []string {
	target, ok := model.Target()
	if !ok {
		return []string{commentNoTarget}
	}
	mappings := model.Mappings()
	if len(mappings) == 0 {
		return []string{commentNoMapping}
	}

	var sources []*graph.Node
	for _, n := range model.Nodes() {
		if n.ID != target.ID {
			sources = append(sources, n)
		}
	}
	joins := model.Joins()
	table := dmlTableName(target.ID)

	switch clauses.mode {
	case ModeInsert:
		return translateInsert(table, mappings, sources, joins, clauses)
	case ModeUpdate:
		return translateUpdate(table, mappings, sources, joins, clauses)
	case ModeDelete:
		return translateDelete(table, sources, joins, clauses)
	default:
		return []string{fmt.Sprintf("-- mode %s is not a DML mode", clauses.mode)}
	}
}

func translateInsert(table string, mappings []graph.MappingEdge, sources []*graph.Node, joins []graph.JoinEdge, clauses *ClauseState) []string {
	targetCols := make([]string, len(mappings))
	sourceRefs := make([]string, len(mappings))
	for i, m := range mappings {
		targetCols[i] = m.TargetColumn()
		sourceRefs[i] = m.SourceRef
	}

	lines := []string{fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(targetCols, ", "))}
	lines = append(lines, assembleSelect(sources, joins, clauses, sourceRefs)...)
	return lines
}

func translateUpdate(table string, mappings []graph.MappingEdge, sources []*graph.Node, joins []graph.JoinEdge, clauses *ClauseState) []string {
	var sets []string
	var sourceRefs []string
	for _, m := range mappings {
		if m.TargetColumn() == dmlJoinKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s=src.%s", m.TargetColumn(), m.SourceColumn()))
		sourceRefs = append(sourceRefs, m.SourceRef)
	}
	if len(sets) == 0 {
		return []string{commentNoSetColumn}
	}
	sourceRefs = append(sourceRefs, dmlJoinKey)

	sub := assembleSelect(sources, joins, clauses, sourceRefs)

	lines := []string{
		"UPDATE " + table,
		"SET " + strings.Join(sets, ", "),
	}
	lines = append(lines, wrapSubselect("FROM (", sub, ") AS src")...)
	lines = append(lines, fmt.Sprintf("WHERE %s.%s=src.%s", table, dmlJoinKey, dmlJoinKey))
	return lines
}

func translateDelete(table string, sources []*graph.Node, joins []graph.JoinEdge, clauses *ClauseState) []string {
	sub := assembleSelect(sources, joins, clauses, []string{dmlJoinKey})

	lines := []string{"DELETE FROM " + table}
	lines = append(lines, wrapSubselect(fmt.Sprintf("WHERE %s IN (", dmlJoinKey), sub, ")")...)
	return lines
}

// wrapSubselect splices a multi-line sub-select between a prefix and
// suffix, keeping its interior lines intact so FROM/JOIN lines stay
// scannable by the identifier rewriter.
func wrapSubselect(prefix string, sub []string, suffix string) []string {
	if len(sub) == 0 {
		return []string{prefix + suffix}
	}
	out := make([]string, len(sub))
	copy(out, sub)
	out[0] = prefix + out[0]
	out[len(out)-1] += suffix
	return out
}

// dmlTableName reduces a qualified node id to the <database>.<table> form
// used in DML statements. Ids with fewer segments pass through unchanged.
func dmlTableName(id string) string {
	parts := strings.Split(id, ".")
	if len(parts) >= 3 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return id
}
