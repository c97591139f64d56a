// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"testing"

	"github.com/bawdo/sqlpage/parser"
	"github.com/bawdo/sqlpage/token"
	"github.com/stretchr/testify/require"
)

// MustParse parses sql with rule and fails the test on error.
func MustParse(t *testing.T, sql string, rule parser.ParseRule) []*parser.StatementInfo {
	t.Helper()
	infos, err := parser.Parse(sql, rule)
	require.NoError(t, err, "parse %q", sql)
	return infos
}

// MustParseOne parses sql with the default rule and requires exactly one
// statement.
func MustParseOne(t *testing.T, sql string) *parser.StatementInfo {
	t.Helper()
	infos := MustParse(t, sql, parser.DefaultRule())
	require.Len(t, infos, 1, "parse %q", sql)
	return infos[0]
}

// Values returns the token values in order.
func Values(tokens []token.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value
	}
	return out
}

// Elided returns the values of the tokens marked for elision.
func Elided(tokens []token.Token) []string {
	var out []string
	for _, t := range tokens {
		if t.Elide {
			out = append(out, t.Value)
		}
	}
	return out
}

// AssertValues checks the token values of info against want.
func AssertValues(t *testing.T, info *parser.StatementInfo, want ...string) {
	t.Helper()
	got := Values(info.Tokens())
	if len(got) != len(want) {
		t.Errorf("expected %d tokens %v, got %d: %v", len(want), want, len(got), got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}
