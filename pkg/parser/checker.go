// Package parser provides a conservative SQL tokenizer and statement-shape
// checker. The checker is purely advisory: it catches lexical problems and
// obviously malformed statements, and makes no attempt at semantic
// validation.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/token"
)

// Result is the outcome of a syntax check.
type Result struct {
	OK      bool
	Message string
}

// Tokenize scans the input into tokens, returning the first lexical error
// encountered.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	if err := l.Err(); err != nil {
		return nil, err
	}
	return toks, nil
}

// Check runs the conservative syntax check over a SQL string and reports
// pass/fail plus a display message.
func Check(input string) Result {
	if strings.TrimSpace(input) == "" {
		return Result{OK: false, Message: "no SQL to validate"}
	}

	toks, err := Tokenize(input)
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}
	if len(toks) == 0 {
		// Comment-only output, e.g. a degraded DML statement.
		return Result{OK: false, Message: "no statement found"}
	}

	if err := checkBalance(toks); err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	for _, t := range toks {
		if t.Type == token.ILLEGAL {
			return Result{OK: false, Message: fmt.Sprintf("illegal token %q at %s", t.Literal, t.Pos)}
		}
	}

	if err := checkShape(toks); err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	return Result{OK: true, Message: "valid"}
}

// checkBalance verifies parentheses and brackets pair up.
func checkBalance(toks []Token) error {
	parens, brackets := 0, 0
	for _, t := range toks {
		switch t.Type {
		case token.LPAREN:
			parens++
		case token.RPAREN:
			parens--
			if parens < 0 {
				return &CheckError{Pos: t.Pos, Message: errUnbalancedParens}
			}
		case token.LBRACKET:
			brackets++
		case token.RBRACKET:
			brackets--
			if brackets < 0 {
				return &CheckError{Pos: t.Pos, Message: errUnbalancedBrackets}
			}
		}
	}
	if parens != 0 {
		return &CheckError{Pos: toks[len(toks)-1].Pos, Message: errUnbalancedParens}
	}
	if brackets != 0 {
		return &CheckError{Pos: toks[len(toks)-1].Pos, Message: errUnbalancedBrackets}
	}
	return nil
}

// checkShape applies statement-level checks. DML statements are accepted on
// their leading keyword alone; SELECT statements (directly or behind a WITH
// prefix) must carry a select list and a FROM table.
func checkShape(toks []Token) error {
	first := toks[0]
	switch first.Type {
	case token.INSERT, token.UPDATE, token.DELETE:
		return nil
	case token.SELECT, token.WITH:
		return checkSelectShape(toks)
	default:
		return &CheckError{
			Pos:     first.Pos,
			Message: fmt.Sprintf("statement must start with SELECT, INSERT, UPDATE, DELETE, or WITH, got %s", first.Type),
		}
	}
}

func checkSelectShape(toks []Token) error {
	// A WITH-prefixed statement may still wrap DML; accept those outright.
	for _, t := range toks {
		switch t.Type {
		case token.INSERT, token.UPDATE, token.DELETE:
			return nil
		}
	}

	selectIdx := -1
	for i, t := range toks {
		if t.Type == token.SELECT {
			selectIdx = i
			break
		}
	}
	if selectIdx < 0 {
		return &CheckError{Pos: toks[0].Pos, Message: "missing SELECT"}
	}

	// Select list: the token after SELECT must begin an expression.
	if selectIdx+1 >= len(toks) {
		return &CheckError{Pos: toks[selectIdx].Pos, Message: "missing SELECT columns"}
	}
	if next := toks[selectIdx+1]; next.Type == token.FROM {
		return &CheckError{Pos: next.Pos, Message: "missing SELECT columns"}
	}

	// FROM with at least one table reference.
	for i := selectIdx + 1; i < len(toks); i++ {
		if toks[i].Type != token.FROM {
			continue
		}
		if i+1 < len(toks) {
			switch toks[i+1].Type {
			case token.IDENT, token.LPAREN, token.LBRACKET:
				return nil
			}
		}
		return &CheckError{Pos: toks[i].Pos, Message: "no tables found in FROM"}
	}
	return &CheckError{Pos: toks[selectIdx].Pos, Message: "no tables found in FROM"}
}
