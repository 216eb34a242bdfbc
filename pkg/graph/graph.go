// Package graph holds the query-graph model: data-source nodes plus join
// and DML-mapping edges.
//
// The model is an arena: a single Model owns all nodes and edges in
// id-keyed storage, and edges store node ids rather than object
// references. Removal is a pure filter over edges-by-id. The model is not
// goroutine-safe; callers serialize access (see internal/session).
package graph

import "strings"

// NodeKind classifies a data-source node.
type NodeKind int

const (
	KindTable NodeKind = iota
	KindCTE
	KindSubquery
)

func (k NodeKind) String() string {
	switch k {
	case KindCTE:
		return "cte"
	case KindSubquery:
		return "subquery"
	default:
		return "table"
	}
}

// JoinType is the SQL join flavor of a join edge.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
)

// Node is a data source on the canvas. Columns may be empty at creation
// time; schema discovery fills them in asynchronously via SetColumns.
type Node struct {
	ID       string
	Kind     NodeKind
	Columns  []string
	selected map[string]bool
}

// Selected returns the selected columns in column order.
func (n *Node) Selected() []string {
	var out []string
	for _, c := range n.Columns {
		if n.selected[c] {
			out = append(out, c)
		}
	}
	return out
}

// JoinEdge connects two nodes with a join type and raw ON condition.
type JoinEdge struct {
	A         string
	B         string
	Type      JoinType
	Condition string
}

// MappingEdge maps a source column reference onto a target column
// reference. It is meaningful only while a DML target is set.
type MappingEdge struct {
	SourceRef string
	TargetRef string
}

// SourceColumn returns the bare column name of the source side.
func (m MappingEdge) SourceColumn() string { return lastSegment(m.SourceRef) }

// TargetColumn returns the bare column name of the target side.
func (m MappingEdge) TargetColumn() string { return lastSegment(m.TargetRef) }

func lastSegment(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// Model owns the nodes and edges of one query graph.
type Model struct {
	nodes    map[string]*Node
	order    []string // node ids in insertion order
	joins    []JoinEdge
	mappings []MappingEdge
	targetID string // empty when no DML target is set
}

// NewModel creates an empty query graph.
func NewModel() *Model {
	return &Model{nodes: make(map[string]*Node)}
}

// Reset atomically clears nodes, edges, and the DML target.
func (m *Model) Reset() {
	m.nodes = make(map[string]*Node)
	m.order = nil
	m.joins = nil
	m.mappings = nil
	m.targetID = ""
}

// AddNode adds a data-source node. The column list may be empty; schema
// discovery can set it later without blocking generation.
func (m *Model) AddNode(id string, kind NodeKind, columns []string) error {
	if _, exists := m.nodes[id]; exists {
		return &DuplicateNodeError{ID: id}
	}
	m.nodes[id] = &Node{
		ID:       id,
		Kind:     kind,
		Columns:  append([]string(nil), columns...),
		selected: make(map[string]bool),
	}
	m.order = append(m.order, id)
	return nil
}

// RemoveNode removes a node and cascades removal of every join and mapping
// edge referencing it. The DML target is cleared if it pointed at the node.
func (m *Model) RemoveNode(id string) error {
	if _, exists := m.nodes[id]; !exists {
		return &NodeNotFoundError{ID: id}
	}
	delete(m.nodes, id)

	order := m.order[:0]
	for _, nid := range m.order {
		if nid != id {
			order = append(order, nid)
		}
	}
	m.order = order

	joins := m.joins[:0]
	for _, j := range m.joins {
		if j.A != id && j.B != id {
			joins = append(joins, j)
		}
	}
	m.joins = joins

	mappings := m.mappings[:0]
	for _, me := range m.mappings {
		if nodeOf(me.SourceRef) != id && nodeOf(me.TargetRef) != id {
			mappings = append(mappings, me)
		}
	}
	m.mappings = mappings

	if m.targetID == id {
		m.targetID = ""
	}
	return nil
}

// AddJoinEdge connects two existing nodes. Fails without mutating the model
// if either endpoint is missing.
func (m *Model) AddJoinEdge(a, b string, jt JoinType, condition string) error {
	if _, ok := m.nodes[a]; !ok {
		return &NodeNotFoundError{ID: a}
	}
	if _, ok := m.nodes[b]; !ok {
		return &NodeNotFoundError{ID: b}
	}
	m.joins = append(m.joins, JoinEdge{A: a, B: b, Type: jt, Condition: condition})
	return nil
}

// RemoveJoinEdges drops every join edge between a and b, in either
// direction.
func (m *Model) RemoveJoinEdges(a, b string) {
	joins := m.joins[:0]
	for _, j := range m.joins {
		if (j.A == a && j.B == b) || (j.A == b && j.B == a) {
			continue
		}
		joins = append(joins, j)
	}
	m.joins = joins
}

// SetTarget marks id as the single DML target, replacing any previous
// target atomically. Retargeting drops all mapping edges, since every
// existing edge references the old target; generated DML never mixes
// columns of two targets.
func (m *Model) SetTarget(id string) error {
	if _, ok := m.nodes[id]; !ok {
		return &NodeNotFoundError{ID: id}
	}
	if m.targetID != "" && m.targetID != id {
		m.mappings = nil
	}
	m.targetID = id
	return nil
}

// ClearTarget removes the DML target designation and drops mapping edges,
// which are meaningless without a target.
func (m *Model) ClearTarget() {
	m.targetID = ""
	m.mappings = nil
}

// Target returns the current DML target node, if one is set.
func (m *Model) Target() (*Node, bool) {
	if m.targetID == "" {
		return nil, false
	}
	n, ok := m.nodes[m.targetID]
	return n, ok
}

// AddMappingEdge maps a source column ref onto a target column ref. Fails
// unless a DML target is currently set and the target side references it.
func (m *Model) AddMappingEdge(sourceRef, targetRef string) error {
	if m.targetID == "" {
		return ErrInvalidMapping
	}
	if nodeOf(targetRef) != m.targetID {
		return ErrInvalidMapping
	}
	if _, ok := m.nodes[nodeOf(sourceRef)]; !ok {
		return &NodeNotFoundError{ID: nodeOf(sourceRef)}
	}
	m.mappings = append(m.mappings, MappingEdge{SourceRef: sourceRef, TargetRef: targetRef})
	return nil
}

// SelectColumn marks a column for the SELECT list.
func (m *Model) SelectColumn(nodeID, column string) error {
	n, ok := m.nodes[nodeID]
	if !ok {
		return &NodeNotFoundError{ID: nodeID}
	}
	n.selected[column] = true
	return nil
}

// DeselectColumn unmarks a column.
func (m *Model) DeselectColumn(nodeID, column string) error {
	n, ok := m.nodes[nodeID]
	if !ok {
		return &NodeNotFoundError{ID: nodeID}
	}
	delete(n.selected, column)
	return nil
}

// SetColumns replaces a node's column list, typically once asynchronous
// schema discovery completes. Selections on columns that no longer exist
// are dropped.
func (m *Model) SetColumns(nodeID string, columns []string) error {
	n, ok := m.nodes[nodeID]
	if !ok {
		return &NodeNotFoundError{ID: nodeID}
	}
	n.Columns = append([]string(nil), columns...)
	keep := make(map[string]bool, len(columns))
	for _, c := range columns {
		keep[c] = true
	}
	for c := range n.selected {
		if !keep[c] {
			delete(n.selected, c)
		}
	}
	return nil
}

// Node returns a node by id.
func (m *Model) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// Joins returns the join edges in insertion order.
func (m *Model) Joins() []JoinEdge {
	return append([]JoinEdge(nil), m.joins...)
}

// Mappings returns the mapping edges in creation order.
func (m *Model) Mappings() []MappingEdge {
	return append([]MappingEdge(nil), m.mappings...)
}

// nodeOf returns the node prefix of a column ref, i.e. everything before
// the last dot. A bare column name maps to the empty node id.
func nodeOf(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[:i]
	}
	return ""
}
