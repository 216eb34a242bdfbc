package parser

import (
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/token"
)

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// CheckError represents a failed statement-shape check.
type CheckError struct {
	Pos     token.Position
	Message string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("syntax check failed at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages.
const (
	errUnterminatedString = "unterminated string literal"
	errUnbalancedParens   = "unbalanced parentheses"
	errUnbalancedBrackets = "unbalanced brackets"
)
