package parser

import (
	"github.com/bawdo/sqlpage/token"
)

const numKinds = int(token.FragmentUnion) + 1

// filterOrder is the order in which the per-kind filters see each token.
var filterOrder = [...]token.FragmentKind{
	token.FragmentSelect,
	token.FragmentFrom,
	token.FragmentWhere,
	token.FragmentGroupBy,
	token.FragmentHaving,
	token.FragmentOrderBy,
	token.FragmentLimit,
	token.FragmentOffset,
	token.FragmentUnion,
}

// opener maps the keyword that opens each select child fragment.
var opener = map[token.FragmentKind]token.Kind{
	token.FragmentFrom:    token.FROM,
	token.FragmentWhere:   token.WHERE,
	token.FragmentGroupBy: token.GROUP,
	token.FragmentHaving:  token.HAVING,
	token.FragmentOrderBy: token.ORDER,
	token.FragmentLimit:   token.LIMIT,
	token.FragmentOffset:  token.OFFSET,
}

// finishTags lists, per fragment kind, the keywords that end the innermost
// fragment of that kind at the current depth. Set operations end every
// select-level fragment and are checked separately.
var finishTags = map[token.FragmentKind][]token.Kind{
	token.FragmentFrom:    {token.WHERE, token.GROUP, token.HAVING, token.ORDER, token.LIMIT, token.OFFSET, token.FOR},
	token.FragmentWhere:   {token.GROUP, token.HAVING, token.ORDER, token.LIMIT, token.OFFSET, token.FOR},
	token.FragmentGroupBy: {token.HAVING, token.ORDER, token.LIMIT, token.OFFSET, token.FOR},
	token.FragmentHaving:  {token.ORDER, token.LIMIT, token.OFFSET, token.FOR},
	token.FragmentOrderBy: {token.LIMIT, token.OFFSET, token.FOR},
	token.FragmentLimit:   {token.OFFSET, token.FOR},
	token.FragmentOffset:  {token.LIMIT, token.FOR},
	token.FragmentUnion:   {token.SELECT},
}

func finishes(k token.FragmentKind, tok token.Kind) bool {
	if tok.IsSetOp() && k != token.FragmentUnion {
		return true
	}
	for _, t := range finishTags[k] {
		if t == tok {
			return true
		}
	}
	return false
}

// parseState is owned by a single Parse call. Per-statement fields are
// cleared by reset at every statement boundary.
type parseState struct {
	rule     ParseRule
	maxDepth int
	done     []*StatementInfo

	tokens    []token.Token
	params    []int
	fragments []token.Fragment
	selects   []token.Select

	open    [numKinds][]int // open fragment indices per kind; parens included
	current []int           // open fragments of every kind, innermost last

	root          int  // select index of the outermost select, or None
	rootItems     bool // inside the outermost select's column list
	isUnion       bool
	containsLimit bool
	lockPos       int
}

func newParseState(rule ParseRule, maxDepth int) *parseState {
	s := &parseState{rule: rule, maxDepth: maxDepth}
	s.reset()
	return s
}

func (s *parseState) reset() {
	s.tokens = nil
	s.params = nil
	s.fragments = nil
	s.selects = nil
	for i := range s.open {
		s.open[i] = nil
	}
	s.current = nil
	s.root = token.None
	s.rootItems = false
	s.isUnion = false
	s.containsLimit = false
	s.lockPos = token.None
}

func (s *parseState) depth() int {
	return len(s.open[token.FragmentParens])
}

func (s *parseState) errorf(pos int, kind token.FragmentKind, sentinel error, msg string) error {
	return &Error{Statement: len(s.done), Pos: pos, Fragment: kind, Msg: msg, Err: sentinel}
}

// feed processes one raw token.
func (s *parseState) feed(raw string) error {
	kind := token.Lookup(raw)
	if kind == token.SEMICOLON {
		return s.endStatement()
	}
	pos := len(s.tokens)
	tok := token.Token{Value: raw, Kind: kind, Pos: pos, Fragment: token.None, Param: token.None}

	if kind == token.QUESTION {
		tok.Param = len(s.params)
		s.params = append(s.params, pos)
	}
	if kind == token.LIMIT {
		s.containsLimit = true
	}

	switch kind {
	case token.LPAREN:
		if s.depth() >= s.maxDepth {
			return s.errorf(pos, token.FragmentParens, ErrNestingTooDeep, "")
		}
		// A parenthesized select after a set operation ends the operator.
		s.closeTop(token.FragmentUnion, pos-1)
		s.openFragment(token.FragmentParens, pos, token.None)
		tok.Marker = true
	case token.RPAREN:
		if s.depth() == 0 {
			return s.errorf(pos, token.FragmentParens, ErrUnbalancedParenthesis, "no matching \"(\"")
		}
		s.closeInner(pos - 1)
		parens := s.open[token.FragmentParens]
		s.close(parens[len(parens)-1], pos)
		tok.Marker = true
	}

	for _, k := range filterOrder {
		if finishes(k, kind) {
			s.closeTop(k, pos-1)
		}
		if s.start(k, kind, pos) {
			tok.Marker = true
		}
	}

	if kind == token.FOR && s.lockPos == token.None && s.depth() == 0 && s.selectAt(0) != token.None {
		s.lockPos = pos
	}

	if n := len(s.current); n > 0 {
		tok.Fragment = s.current[n-1]
	}
	tok.Elide = s.elide(pos)
	s.tokens = append(s.tokens, tok)
	return nil
}

// closeTop closes the innermost fragment of kind k if it sits at the
// current depth.
func (s *parseState) closeTop(k token.FragmentKind, end int) {
	stack := s.open[k]
	if len(stack) == 0 {
		return
	}
	f := stack[len(stack)-1]
	if s.fragments[f].Depth != s.depth() {
		return
	}
	s.close(f, end)
}

// start opens a fragment of kind k when tok is its opening keyword. Select
// children only open below a select at the same depth.
func (s *parseState) start(k token.FragmentKind, tok token.Kind, pos int) bool {
	d := s.depth()
	switch k {
	case token.FragmentSelect:
		if tok != token.SELECT {
			return false
		}
		sel := len(s.selects)
		f := s.openFragment(k, pos, sel)
		s.selects = append(s.selects, token.NewSelect(f))
		if s.root == token.None && d == 0 {
			s.root = sel
			s.rootItems = true
		}
		return true
	case token.FragmentUnion:
		if !tok.IsSetOp() {
			return false
		}
		s.isUnion = true
		s.openFragment(k, pos, token.None)
		return true
	}
	if opener[k] != tok {
		return false
	}
	sel := s.selectAt(d)
	if sel == token.None {
		return false
	}
	f := s.openFragment(k, pos, sel)
	s.selects[sel].SetChild(k, f)
	if k == token.FragmentFrom && sel == s.root {
		s.rootItems = false
	}
	return true
}

// selectAt returns the innermost open select at depth d, or None.
func (s *parseState) selectAt(d int) int {
	stack := s.open[token.FragmentSelect]
	if len(stack) == 0 {
		return token.None
	}
	f := s.fragments[stack[len(stack)-1]]
	if f.Depth != d {
		return token.None
	}
	return f.Select
}

func (s *parseState) openFragment(k token.FragmentKind, pos, sel int) int {
	f := len(s.fragments)
	s.fragments = append(s.fragments, token.Fragment{
		Kind:   k,
		Begin:  pos,
		End:    token.None,
		Depth:  s.depth(),
		Select: sel,
	})
	s.open[k] = append(s.open[k], f)
	s.current = append(s.current, f)
	return f
}

func (s *parseState) close(f, end int) {
	frag := &s.fragments[f]
	if end < frag.Begin {
		end = frag.Begin
	}
	frag.End = end
	s.open[frag.Kind] = remove(s.open[frag.Kind], f)
	s.current = remove(s.current, f)
	if frag.Kind == token.FragmentSelect && frag.Select == s.root {
		s.rootItems = false
	}
}

// closeInner closes every fragment opened inside the innermost parenthesis.
func (s *parseState) closeInner(end int) {
	d := s.depth()
	for i := len(s.current) - 1; i >= 0; i-- {
		f := s.current[i]
		frag := s.fragments[f]
		if frag.Kind == token.FragmentParens || frag.Depth != d {
			continue
		}
		s.close(f, end)
	}
}

func remove(stack []int, f int) []int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == f {
			return append(stack[:i], stack[i+1:]...)
		}
	}
	return stack
}

// elide decides whether the token at pos is dropped from the clean text.
func (s *parseState) elide(pos int) bool {
	if s.rootItems {
		return s.rule.ElideRootSelectItems && pos != s.fragments[s.selects[s.root].Fragment].Begin
	}
	for i := len(s.current) - 1; i >= 0; i-- {
		frag := s.fragments[s.current[i]]
		if frag.Kind == token.FragmentParens || frag.Depth != 0 {
			continue
		}
		switch frag.Kind {
		case token.FragmentOrderBy:
			return s.rule.ElideOrderBy
		case token.FragmentLimit:
			return s.rule.ElideLimit
		case token.FragmentOffset:
			return s.rule.ElideOffset
		}
		return false
	}
	return false
}

// endStatement closes everything still open and snapshots the statement.
func (s *parseState) endStatement() error {
	if len(s.tokens) == 0 {
		s.reset()
		return nil
	}
	if parens := s.open[token.FragmentParens]; len(parens) > 0 {
		f := s.fragments[parens[len(parens)-1]]
		return s.errorf(f.Begin, token.FragmentParens, ErrUnbalancedParenthesis, "statement ends inside \"(\"")
	}
	last := len(s.tokens) - 1
	for len(s.current) > 0 {
		s.close(s.current[len(s.current)-1], last)
	}
	for k, stack := range s.open {
		if len(stack) > 0 {
			f := s.fragments[stack[len(stack)-1]]
			return s.errorf(f.Begin, token.FragmentKind(k), ErrDanglingFragment, "")
		}
	}
	for _, f := range s.fragments {
		if !f.Closed() {
			return s.errorf(f.Begin, f.Kind, ErrDanglingFragment, "")
		}
	}
	s.done = append(s.done, &StatementInfo{
		tokens:        s.tokens,
		params:        s.params,
		fragments:     s.fragments,
		selects:       s.selects,
		root:          s.root,
		isUnion:       s.isUnion,
		containsLimit: s.containsLimit,
		lockPos:       s.lockPos,
		rule:          s.rule,
	})
	s.reset()
	return nil
}
