package query

import "strconv"

// SelectorKind discriminates how a version path segment selects a row.
type SelectorKind int

const (
	SelectLatest SelectorKind = iota
	SelectByID
	SelectByToken
)

// Selector is a resolved version path segment.
type Selector struct {
	Kind  SelectorKind
	ID    int64
	Token string
}

// tokenLengthThreshold separates numeric ids from opaque token identifiers.
// Tokens are UUID-class strings and always longer than any decimal id.
const tokenLengthThreshold = 32

// ResolveSelector maps a version path segment to a Selector. "latest" selects
// the newest row, a segment longer than 32 characters is treated as a token,
// and anything else must parse as a positive decimal id. The second return is
// false when the segment fits none of these; callers treat that as not found.
func ResolveSelector(segment string) (Selector, bool) {
	if segment == "latest" {
		return Selector{Kind: SelectLatest}, true
	}
	if len(segment) > tokenLengthThreshold {
		return Selector{Kind: SelectByToken, Token: segment}, true
	}
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return Selector{}, false
	}
	return Selector{Kind: SelectByID, ID: id}, true
}

// ParseID parses a numeric entity id path segment. The second return is false
// for non-numeric or non-positive input; callers treat that as not found.
func ParseID(segment string) (int64, bool) {
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
