package token

// None marks an absent position or fragment index.
const None = -1

// FragmentKind names a syntactic region of a statement.
type FragmentKind int

const (
	FragmentParens FragmentKind = iota
	FragmentSelect
	FragmentFrom
	FragmentWhere
	FragmentGroupBy
	FragmentHaving
	FragmentOrderBy
	FragmentLimit
	FragmentOffset
	FragmentUnion
)

var fragmentNames = [...]string{
	FragmentParens:  "PARENS",
	FragmentSelect:  "SELECT",
	FragmentFrom:    "FROM",
	FragmentWhere:   "WHERE",
	FragmentGroupBy: "GROUP BY",
	FragmentHaving:  "HAVING",
	FragmentOrderBy: "ORDER BY",
	FragmentLimit:   "LIMIT",
	FragmentOffset:  "OFFSET",
	FragmentUnion:   "UNION",
}

func (k FragmentKind) String() string {
	if k >= 0 && int(k) < len(fragmentNames) {
		return fragmentNames[k]
	}
	return "UNKNOWN"
}

// Token is one lexical unit of a statement. Positions index the statement's
// token list; Fragment indexes the statement's fragment list.
type Token struct {
	Value    string
	Kind     Kind
	Pos      int
	Elide    bool // dropped from the clean rendering
	Fragment int  // innermost fragment active when emitted, or None
	Param    int  // placeholder index, or None
	Marker   bool // opens or closes a fragment
}

// IsParam reports whether t is a positional placeholder.
func (t Token) IsParam() bool {
	return t.Param != None
}

// Fragment is a region delimited by its boundary tokens. Begin is the
// position of the opening marker and End the last token the fragment
// absorbed; for parentheses End is the closing ")".
type Fragment struct {
	Kind   FragmentKind
	Begin  int
	End    int
	Depth  int // parenthesis depth the fragment was opened at
	Select int // owning select index, or None
}

// Closed reports whether both boundaries are set.
func (f Fragment) Closed() bool {
	return f.Begin != None && f.End != None
}

// Select records one SELECT keyword and the first child fragment of each
// kind opened for it. Child fields are fragment indices or None.
type Select struct {
	Fragment int
	From     int
	Where    int
	GroupBy  int
	Having   int
	OrderBy  int
	Limit    int
	Offset   int
}

// NewSelect returns a Select owning fragment f with no children.
func NewSelect(f int) Select {
	return Select{
		Fragment: f,
		From:     None,
		Where:    None,
		GroupBy:  None,
		Having:   None,
		OrderBy:  None,
		Limit:    None,
		Offset:   None,
	}
}

// Child returns the child fragment index of kind k, or None.
func (s *Select) Child(k FragmentKind) int {
	if p := s.child(k); p != nil {
		return *p
	}
	return None
}

// SetChild records f as the child of kind k unless one is already set.
// It reports whether the child was recorded.
func (s *Select) SetChild(k FragmentKind, f int) bool {
	p := s.child(k)
	if p == nil || *p != None {
		return false
	}
	*p = f
	return true
}

func (s *Select) child(k FragmentKind) *int {
	switch k {
	case FragmentFrom:
		return &s.From
	case FragmentWhere:
		return &s.Where
	case FragmentGroupBy:
		return &s.GroupBy
	case FragmentHaving:
		return &s.Having
	case FragmentOrderBy:
		return &s.OrderBy
	case FragmentLimit:
		return &s.Limit
	case FragmentOffset:
		return &s.Offset
	}
	return nil
}
