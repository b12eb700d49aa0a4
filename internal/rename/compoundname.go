// Package rename implements cross-file rename (C8): combining an
// adapter's local rename with index-driven expansion to every other
// occurrence of the renamed symbol, then applying the piece-level edit
// rules from spec.md §4.7 keyed by a parsed CompoundDeclName.
//
// Grounded on spec.md §4.7 directly — no pack example performs a
// cross-file rename, so the compound-name parser and edit-rule table
// are new code, written in the teacher's plain-function, no-regexp
// parsing style (compare internal/config's env-override parsing).
package rename

import "strings"

// Param is one parameter of a CompoundDeclName: either a named label
// or a wildcard ("_").
type Param struct {
	Label      string
	IsWildcard bool
}

// CompoundDeclName is a base name plus an ordered parameter list, the
// data model spec §3 names (e.g. "foo(a:b:)" or a plain "foo").
type CompoundDeclName struct {
	BaseName   string
	Parameters []Param
}

// Param returns the i'th parameter, or the zero Param and false if i
// is out of range — including the boundary case where a malformed
// name truncated the parameter list early.
func (c CompoundDeclName) Param(i int) (Param, bool) {
	if i < 0 || i >= len(c.Parameters) {
		return Param{}, false
	}
	return c.Parameters[i], true
}

// ParseCompoundDeclName parses s into a CompoundDeclName. A name with
// no parenthesis is a bare base name with no parameters. A name whose
// parameter list is missing its closing parenthesis is tolerated per
// spec §8: only fully colon-terminated labels before the truncation
// point are recognized; a trailing partial label with no colon is
// unspecified and dropped rather than erroring.
func ParseCompoundDeclName(s string) CompoundDeclName {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return CompoundDeclName{BaseName: s}
	}

	base := s[:open]
	rest := s[open+1:]
	if close := strings.IndexByte(rest, ')'); close >= 0 {
		rest = rest[:close]
	}
	// Whether or not the closing paren was found, rest now holds the
	// raw "label:label:..." text; a well-formed list ends in ':' so
	// splitting on ':' always yields one trailing empty element that
	// we discard. A truncated list (missing ')') may end mid-label
	// with no trailing colon — that last, colon-less fragment is
	// dropped as an unspecified parameter.
	if rest == "" {
		return CompoundDeclName{BaseName: base}
	}

	parts := strings.Split(rest, ":")
	n := len(parts) - 1
	if n < 0 {
		n = 0
	}

	params := make([]Param, 0, n)
	for i := 0; i < n; i++ {
		label := parts[i]
		params = append(params, Param{Label: label, IsWildcard: label == "_"})
	}
	return CompoundDeclName{BaseName: base, Parameters: params}
}

// LabelOrUnderscore returns p's label, or "_" if p is a wildcard.
func (p Param) LabelOrUnderscore() string {
	if p.IsWildcard {
		return "_"
	}
	return p.Label
}
