package parser

import "github.com/leapstack-labs/canvasql/pkg/token"

// Token is a lexical token with its source position.
type Token struct {
	Type    token.Type
	Literal string
	Pos     token.Position
}
