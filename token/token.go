// Package token defines the lexical kinds the fragment parser recognizes and
// the value types it emits for each parsed statement.
package token

import "strings"

// Kind classifies a raw token. Anything that is not punctuation from the
// fixed set or a tracked keyword is an IDENT.
type Kind int

const (
	IDENT Kind = iota // identifiers, literals, operators

	// Punctuation
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;
	QUESTION  // ?

	// Keywords
	keywordBeg
	SELECT
	FROM
	WHERE
	GROUP
	HAVING
	ORDER
	BY
	LIMIT
	OFFSET
	UNION
	INTERSECT
	EXCEPT
	ALL
	DISTINCT
	FOR
	keywordEnd
)

var kinds = [...]string{
	IDENT:     "IDENT",
	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	SEMICOLON: ";",
	QUESTION:  "?",
	SELECT:    "SELECT",
	FROM:      "FROM",
	WHERE:     "WHERE",
	GROUP:     "GROUP",
	HAVING:    "HAVING",
	ORDER:     "ORDER",
	BY:        "BY",
	LIMIT:     "LIMIT",
	OFFSET:    "OFFSET",
	UNION:     "UNION",
	INTERSECT: "INTERSECT",
	EXCEPT:    "EXCEPT",
	ALL:       "ALL",
	DISTINCT:  "DISTINCT",
	FOR:       "FOR",
}

// String returns the canonical spelling of k.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kinds) && kinds[k] != "" {
		return kinds[k]
	}
	return "UNKNOWN"
}

// IsKeyword reports whether k is one of the tracked keywords.
func (k Kind) IsKeyword() bool {
	return k > keywordBeg && k < keywordEnd
}

// IsSetOp reports whether k combines two selects (UNION, INTERSECT, EXCEPT).
func (k Kind) IsSetOp() bool {
	return k == UNION || k == INTERSECT || k == EXCEPT
}

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, int(keywordEnd-keywordBeg))
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[kinds[k]] = k
	}
}

// Lookup classifies raw token text. Keywords match case-insensitively.
func Lookup(s string) Kind {
	if len(s) == 1 {
		switch s[0] {
		case ',':
			return COMMA
		case '(':
			return LPAREN
		case ')':
			return RPAREN
		case ';':
			return SEMICOLON
		case '?':
			return QUESTION
		}
	}
	// Longest keyword is INTERSECT.
	if len(s) < 2 || len(s) > 9 {
		return IDENT
	}
	if k, ok := keywords[strings.ToUpper(s)]; ok {
		return k
	}
	return IDENT
}
