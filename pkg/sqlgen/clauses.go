// Package sqlgen compiles a query graph plus clause state into SQL text.
//
// Generation is deterministic and non-incremental: every call rebuilds the
// full statement from the current model and clause state. The output is
// display text first; beyond an advisory syntax check it is never validated
// semantically.
package sqlgen

import (
	"fmt"
	"strings"
)

// Mode selects the statement kind to generate.
type Mode int

const (
	ModeSelect Mode = iota
	ModeInsert
	ModeUpdate
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeUpdate:
		return "UPDATE"
	case ModeDelete:
		return "DELETE"
	default:
		return "SELECT"
	}
}

// ParseMode maps a mode name to its Mode. Unknown names map to ModeSelect.
func ParseMode(s string) Mode {
	switch s {
	case "INSERT", "insert":
		return ModeInsert
	case "UPDATE", "update":
		return ModeUpdate
	case "DELETE", "delete":
		return ModeDelete
	default:
		return ModeSelect
	}
}

// Clause distinguishes the two predicate lists.
type Clause int

const (
	ClauseWhere Clause = iota
	ClauseHaving
)

// Predicate is one (column, operator, value) filter triple. The value is
// always treated as an opaque string: comparison operators quote it as a
// string literal, IN/NOT IN insert it verbatim, and the null-test family
// ignores it entirely.
type Predicate struct {
	Column   string
	Operator string
	Value    string
}

// Aggregate is one aggregate expression for the SELECT list.
type Aggregate struct {
	Func   string
	Column string
	Alias  string
}

// OrderBy is one ORDER BY entry.
type OrderBy struct {
	Column    string
	Direction string
}

// DerivedColumn is a raw expression projected with an alias.
type DerivedColumn struct {
	Expression string
	Alias      string
}

// CTEDefinition is a named, opaque WITH-block body.
type CTEDefinition struct {
	Name string
	Body string
}

// ClauseState holds everything outside the graph that shapes the generated
// statement. All lists preserve insertion order. Limit and offset use 0 as
// the "unset" sentinel, so an explicit LIMIT 0 cannot be expressed.
type ClauseState struct {
	where      []Predicate
	having     []Predicate
	groupBy    []string
	groupSeen  map[string]bool
	aggregates []Aggregate
	orderBy    []OrderBy
	derived    []DerivedColumn
	ctes       []CTEDefinition
	cteSeen    map[string]bool
	limit      int
	offset     int

	mode          Mode
	linkedServers map[string]string
	importedBody  string // literal residue of an imported statement

	combineOp    string
	combineQuery string // opaque second statement for the set operation
}

// NewClauseState creates an empty clause state in SELECT mode.
func NewClauseState() *ClauseState {
	return &ClauseState{
		groupSeen: make(map[string]bool),
		cteSeen:   make(map[string]bool),
	}
}

// Reset clears all clause state, returning to SELECT mode.
func (c *ClauseState) Reset() {
	*c = *NewClauseState()
}

// AddPredicate appends a filter triple to the WHERE or HAVING list.
func (c *ClauseState) AddPredicate(clause Clause, column, operator, value string) {
	p := Predicate{Column: column, Operator: operator, Value: value}
	if clause == ClauseHaving {
		c.having = append(c.having, p)
	} else {
		c.where = append(c.where, p)
	}
}

// AddGroupBy appends a GROUP BY column, keeping the list ordered-unique.
func (c *ClauseState) AddGroupBy(column string) {
	if c.groupSeen[column] {
		return
	}
	c.groupSeen[column] = true
	c.groupBy = append(c.groupBy, column)
}

// AddAggregate appends an aggregate expression.
func (c *ClauseState) AddAggregate(fn, column, alias string) {
	c.aggregates = append(c.aggregates, Aggregate{Func: fn, Column: column, Alias: alias})
}

// AddOrderBy appends an ORDER BY entry.
func (c *ClauseState) AddOrderBy(column, direction string) {
	c.orderBy = append(c.orderBy, OrderBy{Column: column, Direction: direction})
}

// AddDerived appends a derived column expression.
func (c *ClauseState) AddDerived(expression, alias string) {
	c.derived = append(c.derived, DerivedColumn{Expression: expression, Alias: alias})
}

// AddCTE registers a named CTE body. Names must be unique.
func (c *ClauseState) AddCTE(name, body string) error {
	if c.cteSeen[name] {
		return fmt.Errorf("cte %q already defined", name)
	}
	c.cteSeen[name] = true
	c.ctes = append(c.ctes, CTEDefinition{Name: name, Body: body})
	return nil
}

// SetLimit sets the LIMIT value; 0 omits the clause.
func (c *ClauseState) SetLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", n)
	}
	c.limit = n
	return nil
}

// SetOffset sets the OFFSET value; 0 omits the clause.
func (c *ClauseState) SetOffset(n int) error {
	if n < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", n)
	}
	c.offset = n
	return nil
}

// SetCombine attaches a set operation appended after the generated SELECT.
// The operator must be UNION, UNION ALL, INTERSECT, or EXCEPT; the second
// statement is opaque text, never re-parsed or rewritten, like CTE bodies.
// An empty query clears the combination.
func (c *ClauseState) SetCombine(operator, query string) error {
	if query == "" {
		c.combineOp, c.combineQuery = "", ""
		return nil
	}
	op := strings.ToUpper(strings.Join(strings.Fields(operator), " "))
	switch op {
	case "UNION", "UNION ALL", "INTERSECT", "EXCEPT":
	default:
		return fmt.Errorf("unknown set operator %q", operator)
	}
	c.combineOp, c.combineQuery = op, query
	return nil
}

// Combine returns the set operator and second statement, both empty when
// no combination is set.
func (c *ClauseState) Combine() (operator, query string) {
	return c.combineOp, c.combineQuery
}

// SetMode switches the statement kind.
func (c *ClauseState) SetMode(m Mode) { c.mode = m }

// Mode returns the current statement kind.
func (c *ClauseState) Mode() Mode { return c.mode }

// SetLinkedServers installs the alias-to-linked-server map used by the
// identifier rewriter.
func (c *ClauseState) SetLinkedServers(m map[string]string) {
	c.linkedServers = m
}

// LinkedServers returns the current alias map.
func (c *ClauseState) LinkedServers() map[string]string { return c.linkedServers }

// SetImportedBody stores the literal non-CTE body of an imported statement.
// Imported SQL is intentionally not decomposed back into nodes and edges.
func (c *ClauseState) SetImportedBody(body string) { c.importedBody = body }

// ImportedBody returns the stored literal body, if any.
func (c *ClauseState) ImportedBody() string { return c.importedBody }

// CTEs returns the registered CTE definitions in declaration order.
func (c *ClauseState) CTEs() []CTEDefinition {
	return append([]CTEDefinition(nil), c.ctes...)
}

// Where returns the WHERE predicates in insertion order.
func (c *ClauseState) Where() []Predicate { return append([]Predicate(nil), c.where...) }

// Having returns the HAVING predicates in insertion order.
func (c *ClauseState) Having() []Predicate { return append([]Predicate(nil), c.having...) }

// GroupBy returns the GROUP BY columns in insertion order.
func (c *ClauseState) GroupBy() []string { return append([]string(nil), c.groupBy...) }

// Limit returns the LIMIT value (0 = unset).
func (c *ClauseState) Limit() int { return c.limit }

// Offset returns the OFFSET value (0 = unset).
func (c *ClauseState) Offset() int { return c.offset }
