package sqlgen

import (
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/parser"
	"github.com/leapstack-labs/canvasql/pkg/token"
)

// RewriteLinkedServers rewrites qualified table references on FROM/JOIN
// lines for cross-database execution. A reference of the form
// <alias>.<database>.<table> whose alias appears in linkedServers becomes
// the four-part bracketed form [<server>].[<database>].dbo.[<table>].
//
// References with an unmapped alias, partial qualifications, and SQL
// keywords pass through untouched. The result targets a server that has
// the linked-server name configured; it is not executable against the
// originating connection.
func RewriteLinkedServers(lines []string, linkedServers map[string]string) []string {
	if len(linkedServers) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if isFromOrJoinLine(line) {
			out[i] = rewriteLine(line, linkedServers)
		} else {
			out[i] = line
		}
	}
	return out
}

// isFromOrJoinLine reports whether a generated line carries FROM/JOIN text.
func isFromOrJoinLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "FROM ") || strings.Contains(trimmed, "JOIN ")
}

// rewriteLine scans one line token-wise and splices rewritten references
// back in by byte offset. A candidate is a maximal chain of exactly three
// dot-joined plain identifiers.
func rewriteLine(line string, linkedServers map[string]string) string {
	toks, err := parser.Tokenize(line)
	if err != nil {
		// Not scannable; leave the line untouched.
		return line
	}

	type span struct {
		start, end  int // byte offsets into line
		replacement string
	}
	var spans []span

	i := 0
	for i < len(toks) {
		if toks[i].Type != token.IDENT || strings.HasPrefix(toks[i].Literal, `"`) {
			i++
			continue
		}
		// Collect the maximal IDENT(.IDENT)* chain starting here.
		chain := []parser.Token{toks[i]}
		j := i + 1
		for j+1 < len(toks) && toks[j].Type == token.DOT && toks[j+1].Type == token.IDENT {
			chain = append(chain, toks[j+1])
			j += 2
		}
		if len(chain) == 3 {
			alias := chain[0].Literal
			if server, ok := linkedServers[alias]; ok {
				db, table := chain[1].Literal, chain[2].Literal
				last := chain[2]
				spans = append(spans, span{
					start:       chain[0].Pos.Offset,
					end:         last.Pos.Offset + len(last.Literal),
					replacement: "[" + server + "].[" + db + "].dbo.[" + table + "]",
				})
			}
		}
		i = j
	}

	if len(spans) == 0 {
		return line
	}

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(line[prev:s.start])
		b.WriteString(s.replacement)
		prev = s.end
	}
	b.WriteString(line[prev:])
	return b.String()
}
