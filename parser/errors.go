package parser

import (
	"errors"
	"fmt"

	"github.com/bawdo/sqlpage/token"
)

// Sentinel errors wrapped by *Error.
var (
	// ErrUnbalancedParenthesis indicates a ")" with no open "(", or a
	// statement that ends with a "(" still open.
	ErrUnbalancedParenthesis = errors.New("unbalanced parenthesis")

	// ErrDanglingFragment indicates a fragment left open after the implicit
	// closing performed at the end of a statement.
	ErrDanglingFragment = errors.New("dangling fragment")

	// ErrNestingTooDeep indicates parentheses nested past the parser's limit.
	ErrNestingTooDeep = errors.New("nesting too deep")
)

// Error describes a malformed statement.
type Error struct {
	Statement int                // 0-based statement index within the input
	Pos       int                // token position within the statement
	Fragment  token.FragmentKind // offending fragment kind
	Msg       string
	Err       error // one of the sentinels above
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("statement %d: %s fragment at token %d: %v: %s", e.Statement, e.Fragment, e.Pos, e.Err, e.Msg)
	}
	return fmt.Sprintf("statement %d: %s fragment at token %d: %v", e.Statement, e.Fragment, e.Pos, e.Err)
}

// Unwrap returns the sentinel, so errors.Is matches it.
func (e *Error) Unwrap() error {
	return e.Err
}
