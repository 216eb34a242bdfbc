// Package canvas defines the on-disk document format for a query canvas
// and applies documents to an editing session.
package canvas

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/canvasql/internal/session"
	"github.com/leapstack-labs/canvasql/pkg/graph"
	"github.com/leapstack-labs/canvasql/pkg/sqlgen"
)

// Document is one canvas: data sources, joins, the optional DML target with
// its mappings, and all clause state.
type Document struct {
	Mode          string            `yaml:"mode,omitempty"`
	Nodes         []Node            `yaml:"nodes"`
	Joins         []Join            `yaml:"joins,omitempty"`
	Target        string            `yaml:"target,omitempty"`
	Mappings      []Mapping         `yaml:"mappings,omitempty"`
	Where         []Predicate       `yaml:"where,omitempty"`
	Having        []Predicate       `yaml:"having,omitempty"`
	GroupBy       []string          `yaml:"group_by,omitempty"`
	Aggregates    []Aggregate       `yaml:"aggregates,omitempty"`
	OrderBy       []OrderBy         `yaml:"order_by,omitempty"`
	Derived       []Derived         `yaml:"derived,omitempty"`
	CTEs          []CTE             `yaml:"ctes,omitempty"`
	Combine       *Combine          `yaml:"combine,omitempty"`
	Limit         int               `yaml:"limit,omitempty"`
	Offset        int               `yaml:"offset,omitempty"`
	LinkedServers map[string]string `yaml:"linked_servers,omitempty"`
}

// Node is one data source on the canvas. Kind defaults to table.
type Node struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind,omitempty"`
	Columns  []string `yaml:"columns,omitempty"`
	Selected []string `yaml:"selected,omitempty"`
}

// Join connects two nodes. Type defaults to INNER.
type Join struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
	Type  string `yaml:"type,omitempty"`
	On    string `yaml:"on"`
}

// Mapping maps a source column reference onto a target column.
type Mapping struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Predicate is one filter triple.
type Predicate struct {
	Column   string `yaml:"column"`
	Operator string `yaml:"operator"`
	Value    string `yaml:"value,omitempty"`
}

// Aggregate is one aggregate select entry.
type Aggregate struct {
	Func   string `yaml:"func"`
	Column string `yaml:"column"`
	Alias  string `yaml:"alias"`
}

// OrderBy is one ORDER BY entry.
type OrderBy struct {
	Column    string `yaml:"column"`
	Direction string `yaml:"direction,omitempty"`
}

// Derived is one derived column.
type Derived struct {
	Expression string `yaml:"expression"`
	Alias      string `yaml:"alias"`
}

// CTE is one named WITH-block body, kept opaque.
type CTE struct {
	Name string `yaml:"name"`
	Body string `yaml:"body"`
}

// Combine attaches a set operation with an opaque second statement.
type Combine struct {
	Operator string `yaml:"operator"`
	Query    string `yaml:"query"`
}

// Parse decodes a canvas document. Unknown fields are rejected so typos in
// hand-written canvases surface immediately.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing canvas: %w", err)
	}
	return &doc, nil
}

// Load reads and decodes a canvas file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading canvas: %w", err)
	}
	return Parse(data)
}

// Save writes a canvas document to path.
func Save(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding canvas: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing canvas: %w", err)
	}
	return nil
}

// Apply replays a document onto a session in a deterministic order: servers,
// mode, nodes, joins, target, mappings, clauses, CTEs. The first rejected
// item aborts the replay.
func Apply(doc *Document, s *session.Session) error {
	if len(doc.LinkedServers) > 0 {
		if err := s.SetLinkedServerMap(doc.LinkedServers); err != nil {
			return err
		}
	}
	if err := s.SetOperationMode(sqlgen.ParseMode(doc.Mode)); err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		kind, err := parseKind(n.Kind)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
		if err := s.AddNode(n.ID, kind, n.Columns); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
		for _, col := range n.Selected {
			if err := s.SelectColumn(n.ID, col); err != nil {
				return fmt.Errorf("node %q: %w", n.ID, err)
			}
		}
	}

	for _, j := range doc.Joins {
		jt, err := parseJoinType(j.Type)
		if err != nil {
			return fmt.Errorf("join %s/%s: %w", j.Left, j.Right, err)
		}
		if err := s.AddJoinEdge(j.Left, j.Right, jt, j.On); err != nil {
			return fmt.Errorf("join %s/%s: %w", j.Left, j.Right, err)
		}
	}

	if doc.Target != "" {
		if err := s.MarkDMLTarget(doc.Target); err != nil {
			return fmt.Errorf("target %q: %w", doc.Target, err)
		}
	}
	for _, m := range doc.Mappings {
		if err := s.AddMappingEdge(m.Source, m.Target); err != nil {
			return fmt.Errorf("mapping %s -> %s: %w", m.Source, m.Target, err)
		}
	}

	for _, p := range doc.Where {
		if err := s.AddPredicate(sqlgen.ClauseWhere, p.Column, p.Operator, p.Value); err != nil {
			return err
		}
	}
	for _, p := range doc.Having {
		if err := s.AddPredicate(sqlgen.ClauseHaving, p.Column, p.Operator, p.Value); err != nil {
			return err
		}
	}
	for _, col := range doc.GroupBy {
		if err := s.AddGroupBy(col); err != nil {
			return err
		}
	}
	for _, a := range doc.Aggregates {
		if err := s.AddAggregate(a.Func, a.Column, a.Alias); err != nil {
			return err
		}
	}
	for _, o := range doc.OrderBy {
		if err := s.AddOrderBy(o.Column, o.Direction); err != nil {
			return err
		}
	}
	for _, d := range doc.Derived {
		if err := s.AddDerived(d.Expression, d.Alias); err != nil {
			return err
		}
	}
	for _, c := range doc.CTEs {
		if err := s.AddCTE(c.Name, c.Body); err != nil {
			return fmt.Errorf("cte %q: %w", c.Name, err)
		}
	}
	if doc.Combine != nil {
		if err := s.SetCombine(doc.Combine.Operator, doc.Combine.Query); err != nil {
			return fmt.Errorf("combine: %w", err)
		}
	}
	if doc.Limit > 0 {
		if err := s.SetLimit(doc.Limit); err != nil {
			return err
		}
	}
	if doc.Offset > 0 {
		if err := s.SetOffset(doc.Offset); err != nil {
			return err
		}
	}
	return nil
}

// Compile loads a canvas file, applies it to a fresh session, and returns
// the generated SQL.
func Compile(path string, cfg session.Config) (string, error) {
	doc, err := Load(path)
	if err != nil {
		return "", err
	}
	s := session.New(cfg)
	defer s.Close()
	if err := Apply(doc, s); err != nil {
		return "", err
	}
	return s.SQL(), nil
}

func parseKind(s string) (graph.NodeKind, error) {
	switch s {
	case "", "table":
		return graph.KindTable, nil
	case "cte":
		return graph.KindCTE, nil
	case "subquery":
		return graph.KindSubquery, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

func parseJoinType(s string) (graph.JoinType, error) {
	switch s {
	case "", "INNER", "inner":
		return graph.JoinInner, nil
	case "LEFT", "left":
		return graph.JoinLeft, nil
	case "RIGHT", "right":
		return graph.JoinRight, nil
	case "FULL", "full":
		return graph.JoinFull, nil
	default:
		return "", fmt.Errorf("unknown join type %q", s)
	}
}
