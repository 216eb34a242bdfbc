package sqlgen

import "strings"

// InlineCTEs prefixes the statement with a WITH clause built from the
// registered CTE definitions. Bodies are opaque text and are never
// re-parsed or validated here. With no definitions the statement is
// returned unchanged.
func InlineCTEs(ctes []CTEDefinition, statement string) string {
	if len(ctes) == 0 {
		return statement
	}

	var b strings.Builder
	b.WriteString("WITH ")
	for i, cte := range ctes {
		if i > 0 {
			b.WriteString(",\n  ")
		}
		b.WriteString(cte.Name)
		b.WriteString(" AS (\n")
		b.WriteString(cte.Body)
		b.WriteString("\n)")
	}
	b.WriteString("\n")
	b.WriteString(statement)
	return b.String()
}

// AppendCombine attaches a set-operation block to a SELECT statement, the
// second statement parenthesized on its own lines. With no operator the
// statement is returned unchanged.
func AppendCombine(statement, operator, second string) string {
	if operator == "" || second == "" {
		return statement
	}
	return statement + "\n" + operator + "\n(\n" + second + "\n)"
}
