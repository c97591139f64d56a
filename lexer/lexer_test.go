package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \t\r\n ", nil},
		{"single word", "select", []string{"select"}},
		{
			"simple select",
			"select id from book",
			[]string{"select", "id", "from", "book"},
		},
		{
			"placeholder glued to operator",
			"where x=?",
			[]string{"where", "x=", "?"},
		},
		{
			"function call",
			"max(id)",
			[]string{"max", "(", "id", ")"},
		},
		{
			"commas",
			"a,b ,c",
			[]string{"a", ",", "b", ",", "c"},
		},
		{
			"statement separator",
			"SELECT a FROM t;SELECT b FROM u",
			[]string{"SELECT", "a", "FROM", "t", ";", "SELECT", "b", "FROM", "u"},
		},
		{
			"mixed whitespace",
			"select\n\tid\r\nfrom  book",
			[]string{"select", "id", "from", "book"},
		},
		{
			"adjacent punctuation",
			"((?,?))",
			[]string{"(", "(", "?", ",", "?", ")", ")"},
		},
		{
			"quoted literal is split on punctuation",
			"name = 'a;b'",
			[]string{"name", "=", "'a", ";", "b'"},
		},
		{
			"multibyte runs",
			"select 名前 from 本",
			[]string{"select", "名前", "from", "本"},
		},
		{
			"trailing run flushed",
			"limit ?offset",
			[]string{"limit", "?", "offset"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

// The number of tokens is the number of non-whitespace runs between
// punctuation plus the number of punctuation characters.
func TestTokenCountConservation(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"select id from book where x=? order by id limit ? offset ?",
		"select (select max(id) from book) as m from book1",
		"select a,b,c from t where a in (?,?,?) and b = 'x y'",
		"  select\t*  from\nt  ",
	}
	for _, in := range inputs {
		want := 0
		run := false
		for i := 0; i < len(in); i++ {
			c := in[i]
			switch {
			case strings.IndexByte(",();?", c) >= 0:
				if run {
					want++
				}
				want++
				run = false
			case c == ' ' || c == '\t' || c == '\n' || c == '\r':
				if run {
					want++
				}
				run = false
			default:
				run = true
			}
		}
		if run {
			want++
		}
		assert.Len(t, Tokenize(in), want, "input %q", in)
	}
}

func TestLexerNext(t *testing.T) {
	t.Parallel()
	l := New("a(b")
	for _, want := range []string{"a", "(", "b"} {
		got, ok := l.Next()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := l.Next()
	assert.False(t, ok)
	_, ok = l.Next()
	assert.False(t, ok)
}
