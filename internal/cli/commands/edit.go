package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/session"
	"github.com/leapstack-labs/canvasql/pkg/graph"
	"github.com/leapstack-labs/canvasql/pkg/sqlgen"
)

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [canvas-file]",
		Short: "Edit a canvas interactively",
		Long: `Open an interactive editor on a canvas. Every accepted command
regenerates and prints the SQL. Type .help for the command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			s, err := loadSession(cfg, path)
			if err != nil {
				return err
			}
			defer s.Close()
			return runEditREPL(cmd, s)
		},
	}
}

func runEditREPL(cmd *cobra.Command, s *session.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "canvasql> ",
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "CanvaSQL canvas editor")
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ".quit", ".exit":
			return nil
		case ".help":
			printEditHelp(out)
			continue
		}

		if err := applyEditLine(s, line); err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, s.SQL())
		if res := s.Validate(); !res.OK {
			_, _ = fmt.Fprintf(out, "(syntax: %s)\n", res.Message)
		}
	}
}

// applyEditLine parses and applies one editor command.
func applyEditLine(s *session.Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, rest := fields[0], fields[1:]

	switch verb {
	case "node":
		if len(rest) < 1 {
			return errors.New("usage: node <id> [col1,col2,...]")
		}
		var cols []string
		if len(rest) > 1 {
			cols = strings.Split(rest[1], ",")
		}
		return s.AddNode(rest[0], graph.KindTable, cols)
	case "rm":
		if len(rest) != 1 {
			return errors.New("usage: rm <id>")
		}
		return s.RemoveNode(rest[0])
	case "join":
		if len(rest) < 4 {
			return errors.New("usage: join <a> <b> <INNER|LEFT|RIGHT|FULL> <condition>")
		}
		jt := graph.JoinType(strings.ToUpper(rest[2]))
		switch jt {
		case graph.JoinInner, graph.JoinLeft, graph.JoinRight, graph.JoinFull:
		default:
			return fmt.Errorf("unknown join type %q", rest[2])
		}
		return s.AddJoinEdge(rest[0], rest[1], jt, strings.Join(rest[3:], " "))
	case "select":
		if len(rest) != 2 {
			return errors.New("usage: select <node> <column>")
		}
		return s.SelectColumn(rest[0], rest[1])
	case "deselect":
		if len(rest) != 2 {
			return errors.New("usage: deselect <node> <column>")
		}
		return s.DeselectColumn(rest[0], rest[1])
	case "target":
		if len(rest) != 1 {
			return errors.New("usage: target <id>")
		}
		return s.MarkDMLTarget(rest[0])
	case "untarget":
		return s.ClearDMLTarget()
	case "map":
		if len(rest) != 2 {
			return errors.New("usage: map <source.col> <target.col>")
		}
		return s.AddMappingEdge(rest[0], rest[1])
	case "where", "having":
		if len(rest) < 2 {
			return fmt.Errorf("usage: %s <column> <operator> [value]", verb)
		}
		clause := sqlgen.ClauseWhere
		if verb == "having" {
			clause = sqlgen.ClauseHaving
		}
		value := ""
		if len(rest) > 2 {
			value = strings.Join(rest[2:], " ")
		}
		return s.AddPredicate(clause, rest[0], rest[1], value)
	case "group":
		if len(rest) != 1 {
			return errors.New("usage: group <column>")
		}
		return s.AddGroupBy(rest[0])
	case "agg":
		if len(rest) != 3 {
			return errors.New("usage: agg <func> <column> <alias>")
		}
		return s.AddAggregate(rest[0], rest[1], rest[2])
	case "order":
		if len(rest) < 1 {
			return errors.New("usage: order <column> [ASC|DESC]")
		}
		dir := ""
		if len(rest) > 1 {
			dir = strings.ToUpper(rest[1])
		}
		return s.AddOrderBy(rest[0], dir)
	case "derive":
		if len(rest) < 2 {
			return errors.New("usage: derive <alias> <expression>")
		}
		return s.AddDerived(strings.Join(rest[1:], " "), rest[0])
	case "cte":
		if len(rest) < 2 {
			return errors.New("usage: cte <name> <body>")
		}
		return s.AddCTE(rest[0], strings.Join(rest[1:], " "))
	case "combine":
		if len(rest) == 0 {
			return s.SetCombine("", "")
		}
		op := strings.ToUpper(rest[0])
		query := rest[1:]
		if op == "UNION" && len(query) > 0 && strings.EqualFold(query[0], "ALL") {
			op = "UNION ALL"
			query = query[1:]
		}
		if len(query) == 0 {
			return errors.New("usage: combine <UNION [ALL]|INTERSECT|EXCEPT> <sql>")
		}
		return s.SetCombine(op, strings.Join(query, " "))
	case "limit", "offset":
		if len(rest) != 1 {
			return fmt.Errorf("usage: %s <n>", verb)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("%s: %w", verb, err)
		}
		if verb == "limit" {
			return s.SetLimit(n)
		}
		return s.SetOffset(n)
	case "mode":
		if len(rest) != 1 {
			return errors.New("usage: mode <SELECT|INSERT|UPDATE|DELETE>")
		}
		return s.SetOperationMode(sqlgen.ParseMode(rest[0]))
	case "import":
		if len(rest) < 1 {
			return errors.New("usage: import <sql>")
		}
		return s.ImportSQL(strings.Join(rest, " "))
	case "reset":
		s.Reset()
		return nil
	case "sql":
		return nil
	default:
		return fmt.Errorf("unknown command %q (try .help)", verb)
	}
}

func printEditHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `Canvas commands:
  node <id> [col1,col2,...]                 add a data source
  rm <id>                                   remove a node and its edges
  join <a> <b> <TYPE> <condition>           connect two nodes
  select | deselect <node> <column>         toggle projected columns
  target <id> | untarget                    designate the DML target
  map <source.col> <target.col>             map a column onto the target
  where | having <column> <op> [value]      add a filter
  group <column>                            add a GROUP BY column
  agg <func> <column> <alias>               add an aggregate
  order <column> [ASC|DESC]                 add an ORDER BY entry
  derive <alias> <expression>               add a derived column
  cte <name> <body>                         add a WITH definition
  combine <OP> <sql>                        append a set-operation query
  limit <n> | offset <n>                    set limit/offset (0 clears)
  mode <SELECT|INSERT|UPDATE|DELETE>        switch statement kind
  import <sql>                              replace the canvas with a statement
  reset                                     clear the canvas
  sql                                       reprint the current SQL
  .help  .quit
`)
}
