// Package session ties a query graph, clause state, and generator into one
// editing session: every accepted mutation regenerates the SQL text and
// schedules a debounced syntax check.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/canvasql/pkg/graph"
	"github.com/leapstack-labs/canvasql/pkg/parser"
	"github.com/leapstack-labs/canvasql/pkg/sqlgen"
)

const (
	// DefaultDebounce is the validator delay used when none is configured.
	DefaultDebounce = 500 * time.Millisecond

	minDebounce = 400 * time.Millisecond
	maxDebounce = 800 * time.Millisecond
)

// Config holds session configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Debounce is the validator delay; clamped to [400ms, 800ms],
	// DefaultDebounce when zero.
	Debounce time.Duration
	// OnValidation receives the syntax check result for the text that was
	// current when the debounce timer fired (optional).
	OnValidation func(parser.Result)
	// ManualGenerate disables regeneration after each mutation; SQL is then
	// only rebuilt by an explicit Regenerate call.
	ManualGenerate bool
}

// Session owns one canvas worth of compiler state. Methods are safe for
// concurrent use; every mutation is applied, regenerated, and scheduled for
// validation under a single lock.
type Session struct {
	mu      sync.Mutex
	model   *graph.Model
	clauses *sqlgen.ClauseState
	gen     *sqlgen.Generator

	sql  string
	auto bool

	logger     *slog.Logger
	debounce   time.Duration
	onValidate func(parser.Result)
	timer      *time.Timer
	closed     bool
}

// New creates an empty session in SELECT mode.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := cfg.Debounce
	if d == 0 {
		d = DefaultDebounce
	}
	if d < minDebounce {
		d = minDebounce
	}
	if d > maxDebounce {
		d = maxDebounce
	}

	model := graph.NewModel()
	clauses := sqlgen.NewClauseState()
	s := &Session{
		model:      model,
		clauses:    clauses,
		gen:        sqlgen.NewGenerator(model, clauses),
		auto:       !cfg.ManualGenerate,
		logger:     logger,
		debounce:   d,
		onValidate: cfg.OnValidation,
	}
	s.sql = s.gen.Generate()
	return s
}

// Close stops the pending validation timer, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

// mutate runs fn under the lock and, when it succeeds, regenerates and
// arms the validator. A failed mutation leaves both the state and the
// previous SQL text untouched.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	s.regenerateLocked()
	return nil
}

func (s *Session) regenerateLocked() {
	if !s.auto {
		return
	}
	s.sql = s.gen.Generate()
	s.scheduleValidationLocked()
}

// scheduleValidationLocked restarts the single debounce timer. Rapid edits
// keep pushing the deadline out; only the final state gets checked.
func (s *Session) scheduleValidationLocked() {
	if s.onValidate == nil || s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.runValidation)
}

func (s *Session) runValidation() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	text := s.sql
	cb := s.onValidate
	s.mu.Unlock()

	res := parser.Check(text)
	if !res.OK {
		s.logger.Debug("syntax check failed", "message", res.Message)
	}
	cb(res)
}

// SQL returns the most recently generated text.
func (s *Session) SQL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sql
}

// Regenerate rebuilds the SQL text from current state and returns it,
// regardless of the auto-generate setting.
func (s *Session) Regenerate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sql = s.gen.Generate()
	s.scheduleValidationLocked()
	return s.sql
}

// Validate runs the syntax check synchronously against the current text.
func (s *Session) Validate() parser.Result {
	return parser.Check(s.SQL())
}

// Reset drops all graph and clause state, keeping the linked-server map.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	servers := s.clauses.LinkedServers()
	s.model.Reset()
	s.clauses.Reset()
	s.clauses.SetLinkedServers(servers)
	s.regenerateLocked()
}

// AddNode adds a data source to the canvas. Columns may be empty while
// schema discovery is still running.
func (s *Session) AddNode(id string, kind graph.NodeKind, columns []string) error {
	return s.mutate(func() error { return s.model.AddNode(id, kind, columns) })
}

// RemoveNode removes a node and every join and mapping touching it.
func (s *Session) RemoveNode(id string) error {
	return s.mutate(func() error { return s.model.RemoveNode(id) })
}

// AddJoinEdge connects two existing nodes with a typed join condition.
func (s *Session) AddJoinEdge(a, b string, jt graph.JoinType, condition string) error {
	return s.mutate(func() error { return s.model.AddJoinEdge(a, b, jt, condition) })
}

// RemoveJoinEdges drops all joins between a pair of nodes.
func (s *Session) RemoveJoinEdges(a, b string) error {
	return s.mutate(func() error {
		s.model.RemoveJoinEdges(a, b)
		return nil
	})
}

// MarkDMLTarget designates the single write target for DML modes.
func (s *Session) MarkDMLTarget(id string) error {
	return s.mutate(func() error { return s.model.SetTarget(id) })
}

// ClearDMLTarget removes the target designation and its mappings.
func (s *Session) ClearDMLTarget() error {
	return s.mutate(func() error {
		s.model.ClearTarget()
		return nil
	})
}

// AddMappingEdge maps a source column reference onto a target column.
func (s *Session) AddMappingEdge(sourceRef, targetRef string) error {
	return s.mutate(func() error { return s.model.AddMappingEdge(sourceRef, targetRef) })
}

// SelectColumn includes a node column in the SELECT list.
func (s *Session) SelectColumn(nodeID, column string) error {
	return s.mutate(func() error { return s.model.SelectColumn(nodeID, column) })
}

// DeselectColumn removes a node column from the SELECT list.
func (s *Session) DeselectColumn(nodeID, column string) error {
	return s.mutate(func() error { return s.model.DeselectColumn(nodeID, column) })
}

// SetColumns replaces a node's column list, typically after schema
// discovery completes.
func (s *Session) SetColumns(nodeID string, columns []string) error {
	return s.mutate(func() error { return s.model.SetColumns(nodeID, columns) })
}

// AddPredicate appends a WHERE or HAVING filter triple.
func (s *Session) AddPredicate(clause sqlgen.Clause, column, operator, value string) error {
	return s.mutate(func() error {
		s.clauses.AddPredicate(clause, column, operator, value)
		return nil
	})
}

// AddGroupBy appends a GROUP BY column.
func (s *Session) AddGroupBy(column string) error {
	return s.mutate(func() error {
		s.clauses.AddGroupBy(column)
		return nil
	})
}

// AddAggregate appends an aggregate to the SELECT list.
func (s *Session) AddAggregate(fn, column, alias string) error {
	return s.mutate(func() error {
		s.clauses.AddAggregate(fn, column, alias)
		return nil
	})
}

// AddOrderBy appends an ORDER BY entry.
func (s *Session) AddOrderBy(column, direction string) error {
	return s.mutate(func() error {
		s.clauses.AddOrderBy(column, direction)
		return nil
	})
}

// AddDerived appends a derived column expression.
func (s *Session) AddDerived(expression, alias string) error {
	return s.mutate(func() error {
		s.clauses.AddDerived(expression, alias)
		return nil
	})
}

// SetLimit sets the LIMIT value; 0 omits the clause.
func (s *Session) SetLimit(n int) error {
	return s.mutate(func() error { return s.clauses.SetLimit(n) })
}

// SetOffset sets the OFFSET value; 0 omits the clause.
func (s *Session) SetOffset(n int) error {
	return s.mutate(func() error { return s.clauses.SetOffset(n) })
}

// AddCTE registers a named CTE body for the WITH prefix.
func (s *Session) AddCTE(name, body string) error {
	return s.mutate(func() error { return s.clauses.AddCTE(name, body) })
}

// SetCombine attaches a set-operation statement appended to generated
// SELECTs. An empty query clears it.
func (s *Session) SetCombine(operator, query string) error {
	return s.mutate(func() error { return s.clauses.SetCombine(operator, query) })
}

// SetOperationMode switches between SELECT and the DML statement kinds.
func (s *Session) SetOperationMode(m sqlgen.Mode) error {
	return s.mutate(func() error {
		s.clauses.SetMode(m)
		return nil
	})
}

// Mode returns the current statement kind.
func (s *Session) Mode() sqlgen.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clauses.Mode()
}

// SetLinkedServerMap installs the alias-to-linked-server map.
func (s *Session) SetLinkedServerMap(m map[string]string) error {
	return s.mutate(func() error {
		s.clauses.SetLinkedServers(m)
		return nil
	})
}

// Nodes returns the canvas nodes in insertion order.
func (s *Session) Nodes() []*graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Nodes()
}

// ImportSQL replaces the session with an imported statement. Top-level CTEs
// become editable definitions; the residual body is kept as literal text and
// reproduced as-is on generation. A parse failure leaves the session
// unchanged.
func (s *Session) ImportSQL(text string) error {
	ctes, body, err := parser.ExtractCTEs(text)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(ctes))
	for _, cte := range ctes {
		if seen[cte.Name] {
			return fmt.Errorf("cte %q defined twice", cte.Name)
		}
		seen[cte.Name] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	servers := s.clauses.LinkedServers()
	s.model.Reset()
	s.clauses.Reset()
	s.clauses.SetLinkedServers(servers)
	for _, cte := range ctes {
		if err := s.clauses.AddCTE(cte.Name, cte.Body); err != nil {
			return err
		}
	}
	s.clauses.SetImportedBody(body)
	s.logger.Info("imported statement", "ctes", len(ctes))
	s.sql = s.gen.Generate()
	s.scheduleValidationLocked()
	return nil
}
