package parser

// ParseRule selects which regions of the outermost query are elided from the
// clean rendering.
type ParseRule struct {
	ElideOrderBy         bool `json:"elide_order_by" yaml:"elide_order_by"`
	ElideLimit           bool `json:"elide_limit" yaml:"elide_limit"`
	ElideOffset          bool `json:"elide_offset" yaml:"elide_offset"`
	ElideRootSelectItems bool `json:"elide_root_select_items" yaml:"elide_root_select_items"`
}

// DefaultRule elides every supported region.
func DefaultRule() ParseRule {
	return ParseRule{
		ElideOrderBy:         true,
		ElideLimit:           true,
		ElideOffset:          true,
		ElideRootSelectItems: true,
	}
}

// Bits packs the rule into four bits, for use in cache keys.
func (r ParseRule) Bits() uint8 {
	var b uint8
	if r.ElideOrderBy {
		b |= 1
	}
	if r.ElideLimit {
		b |= 2
	}
	if r.ElideOffset {
		b |= 4
	}
	if r.ElideRootSelectItems {
		b |= 8
	}
	return b
}
