package parser

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/gmofishsauce/hithlain/internal/token"
)

// UnexpectedTokenError reports a token that doesn't fit the current
// grammar production (spec.md §4.2).
type UnexpectedTokenError struct {
	Expected string
	Found    token.Token
	Spn      source.Span
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("unexpected token, expected %s, found %s", e.Expected, e.Found)
}

func (e *UnexpectedTokenError) Span() source.Span { return e.Spn }

// UnexpectedEndError reports running out of tokens mid-production.
type UnexpectedEndError struct {
	Expected string
	Spn      source.Span
}

func (e *UnexpectedEndError) Error() string {
	return fmt.Sprintf("unexpected end of input, expected %s", e.Expected)
}

func (e *UnexpectedEndError) Span() source.Span { return e.Spn }

// RightSideOfExprError wraps a failure parsing the right-hand operand of
// a binary expression, preserving the inner error for better diagnostics
// (spec.md §4.2).
type RightSideOfExprError struct {
	Inner error
	Spn   source.Span
}

func (e *RightSideOfExprError) Error() string {
	return fmt.Sprintf("invalid right side of expression: %v", e.Inner)
}

func (e *RightSideOfExprError) Span() source.Span { return e.Spn }

func (e *RightSideOfExprError) Unwrap() error { return e.Inner }
