package parser

import (
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/token"
)

// CTE is a common table expression extracted from a WITH clause. Body holds
// the literal text between the defining parentheses, untouched.
type CTE struct {
	Name string
	Body string
}

// ExtractCTEs pulls top-level WITH definitions out of a SQL statement.
// It returns the definitions in declaration order plus the remaining
// statement text after the WITH clause. CTE bodies are returned as opaque
// text and never re-parsed.
//
// A statement that does not open with WITH is returned unchanged with no
// definitions. This is the intentionally partial re-import path: the body
// of the statement is kept as literal text, not decomposed into a graph.
func ExtractCTEs(input string) ([]CTE, string, error) {
	toks, err := Tokenize(input)
	if err != nil {
		return nil, "", err
	}
	if len(toks) == 0 || toks[0].Type != token.WITH {
		return nil, input, nil
	}

	var ctes []CTE
	i := 1
	for {
		// name AS ( body )
		if i >= len(toks) || (toks[i].Type != token.IDENT && !toks[i].Type.IsKeyword()) {
			return nil, "", &CheckError{Pos: position(toks, i), Message: "expected CTE name after WITH"}
		}
		name := toks[i].Literal
		i++

		if i >= len(toks) || toks[i].Type != token.AS {
			return nil, "", &CheckError{Pos: position(toks, i), Message: "expected AS in CTE definition"}
		}
		i++

		if i >= len(toks) || toks[i].Type != token.LPAREN {
			return nil, "", &CheckError{Pos: position(toks, i), Message: "expected ( after AS"}
		}
		openOffset := toks[i].Pos.Offset
		depth := 1
		i++
		for i < len(toks) && depth > 0 {
			switch toks[i].Type {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			i++
		}
		if depth != 0 {
			return nil, "", &CheckError{Pos: position(toks, i), Message: errUnbalancedParens}
		}
		closeOffset := toks[i-1].Pos.Offset

		body := strings.TrimSpace(input[openOffset+1 : closeOffset])
		ctes = append(ctes, CTE{Name: name, Body: body})

		if i < len(toks) && toks[i].Type == token.COMMA {
			i++
			continue
		}
		break
	}

	remainder := ""
	if i < len(toks) {
		remainder = strings.TrimSpace(input[toks[i].Pos.Offset:])
	}
	return ctes, remainder, nil
}

// position returns a safe position for error reporting at index i.
func position(toks []Token, i int) token.Position {
	if i < len(toks) {
		return toks[i].Pos
	}
	if len(toks) > 0 {
		return toks[len(toks)-1].Pos
	}
	return token.Position{Line: 1, Column: 1}
}
