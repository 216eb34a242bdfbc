package sqlgen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/graph"
)

// Operator families for predicate rendering.
func isNullFamily(op string) bool {
	switch strings.ToUpper(op) {
	case "IS NULL", "IS NOT NULL", "EXISTS":
		return true
	}
	return false
}

func isListFamily(op string) bool {
	switch strings.ToUpper(op) {
	case "IN", "NOT IN":
		return true
	}
	return false
}

// renderPredicate renders one filter triple.
//
// Comparison operators always quote the value as a string literal; there is
// no type-aware quoting. IN/NOT IN insert the caller-supplied list verbatim
// with no re-splitting or re-quoting. The null-test family ignores the
// value.
func renderPredicate(p Predicate) string {
	switch {
	case isNullFamily(p.Operator):
		return fmt.Sprintf("%s %s", p.Column, p.Operator)
	case isListFamily(p.Operator):
		return fmt.Sprintf("%s %s (%s)", p.Column, p.Operator, p.Value)
	default:
		return fmt.Sprintf("%s %s '%s'", p.Column, p.Operator, p.Value)
	}
}

// selectList builds the SELECT list: selected node columns (qualified, in
// node-then-column order), then derived expressions, then aggregates.
// Defaults to "*" when the combined list is empty.
func selectList(nodes []*graph.Node, clauses *ClauseState) []string {
	var parts []string
	for _, n := range nodes {
		for _, col := range n.Selected() {
			parts = append(parts, n.ID+"."+col)
		}
	}
	for _, d := range clauses.derived {
		parts = append(parts, fmt.Sprintf("%s AS %s", d.Expression, d.Alias))
	}
	for _, a := range clauses.aggregates {
		parts = append(parts, fmt.Sprintf("%s(%s) AS %s", a.Func, a.Column, a.Alias))
	}
	if len(parts) == 0 {
		parts = append(parts, "*")
	}
	return parts
}

// assembleSelect builds a complete SELECT statement over the given nodes as
// ordered lines. An explicit selectOverride replaces the computed SELECT
// list (used by the DML translator for value sub-selects).
func assembleSelect(nodes []*graph.Node, joins []graph.JoinEdge, clauses *ClauseState, selectOverride []string) []string {
	sel := selectOverride
	if sel == nil {
		sel = selectList(nodes, clauses)
	}

	lines := []string{"SELECT " + strings.Join(sel, ", ")}
	lines = append(lines, BuildFrom(nodes, joins)...)

	if parts := renderPredicates(clauses.where); parts != "" {
		lines = append(lines, "WHERE "+parts)
	}
	if len(clauses.groupBy) > 0 {
		lines = append(lines, "GROUP BY "+strings.Join(clauses.groupBy, ", "))
	}
	if parts := renderPredicates(clauses.having); parts != "" {
		lines = append(lines, "HAVING "+parts)
	}
	if len(clauses.orderBy) > 0 {
		var parts []string
		for _, o := range clauses.orderBy {
			parts = append(parts, strings.TrimSpace(o.Column+" "+o.Direction))
		}
		lines = append(lines, "ORDER BY "+strings.Join(parts, ", "))
	}
	if clauses.limit > 0 {
		lines = append(lines, fmt.Sprintf("LIMIT %d", clauses.limit))
	}
	if clauses.offset > 0 {
		lines = append(lines, fmt.Sprintf("OFFSET %d", clauses.offset))
	}

	return lines
}

func renderPredicates(ps []Predicate) string {
	if len(ps) == 0 {
		return ""
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = renderPredicate(p)
	}
	return strings.Join(parts, " AND ")
}
