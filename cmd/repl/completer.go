package main

import (
	"slices"
	"strconv"
	"strings"
)

var keywordNames = []string{
	"and", "as", "by", "distinct", "except", "for update", "from", "group by",
	"having", "intersect", "join", "left join", "limit", "offset", "on", "or",
	"order by", "select", "union", "union all", "where",
}

// argCandidates lists the values a command accepts for the argument after
// done, the arguments already typed.
type argCandidates func(s *Session, done []string) []string

var argCompleters = map[string]argCandidates{
	"parse":   sqlCandidates,
	"p":       sqlCandidates,
	"rule":    ruleCandidates,
	"use":     statementCandidates,
	"engine":  nth(0, func(*Session) []string { return engines }),
	"page":    nth(0, pageSizeCandidates),
	"exec":    nth(0, pageSizeCandidates),
	"connect": nth(0, lastDSNCandidates),
}

// nth offers fn's candidates for argument i only.
func nth(i int, fn func(*Session) []string) argCandidates {
	return func(s *Session, done []string) []string {
		if len(done) != i {
			return nil
		}
		return fn(s)
	}
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns the suffixes completing the word before pos, and that word's
// length in runes.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	prefix, candidates := c.candidates(string(line[:pos]))
	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]+" "))
	}
	return newLine, len([]rune(prefix))
}

// candidates splits text into the words already typed and the word being
// typed, and returns that word with its completions.
func (c *replCompleter) candidates(text string) (string, []string) {
	words := strings.Fields(text)
	prefix := ""
	if !strings.HasSuffix(text, " ") && len(words) > 0 {
		prefix = lastToken(words[len(words)-1])
		if prefix == words[len(words)-1] {
			words = words[:len(words)-1]
		}
	}
	if len(words) == 0 {
		return prefix, filterPrefix(c.sess.commandNames(), prefix)
	}
	fn, ok := argCompleters[strings.ToLower(words[0])]
	if !ok {
		return prefix, nil
	}
	return prefix, filterPrefix(fn(c.sess, words[1:]), prefix)
}

// sqlCandidates offers table names after FROM or JOIN and keywords elsewhere.
func sqlCandidates(s *Session, done []string) []string {
	if len(done) > 0 {
		switch strings.ToLower(done[len(done)-1]) {
		case "from", "join":
			if s.conn == nil {
				return nil
			}
			names := slices.Clone(s.conn.tables)
			slices.Sort(names)
			return slices.Compact(names)
		}
	}
	return keywordNames
}

func ruleCandidates(_ *Session, done []string) []string {
	switch len(done) {
	case 0:
		return ruleNames
	case 1:
		return []string{"off", "on"}
	}
	return nil
}

// statementCandidates numbers the parsed statements from 1.
func statementCandidates(s *Session, done []string) []string {
	if len(done) != 0 {
		return nil
	}
	out := make([]string, len(s.infos))
	for i := range s.infos {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}

func pageSizeCandidates(s *Session) []string {
	sizes := []string{strconv.Itoa(s.cfg.DefaultPageSize)}
	if s.cfg.MaxPageSize != s.cfg.DefaultPageSize {
		sizes = append(sizes, strconv.Itoa(s.cfg.MaxPageSize))
	}
	return sizes
}

func lastDSNCandidates(s *Session) []string {
	if s.lastDSN == "" {
		return nil
	}
	return []string{s.lastDSN}
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	lower := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lower) {
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the text after the last separator: whitespace, a comma
// or an opening parenthesis.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " \t,("); i >= 0 {
		return s[i+1:]
	}
	return s
}
