// Package index defines the persistent symbol index's interface (spec
// §6, an external collaborator never implemented here) plus an
// in-memory reference implementation, index.Memory, used by tests and
// by the fakeadapter demonstrator.
//
// Grounded on the teacher's internal/mcp Client interface style: a
// small set of methods a real backend satisfies, with no concrete
// implementation shipped in this repository beyond a test double.
package index

import "context"

// Role is one of the occurrence roles spec §6 enumerates.
type Role string

const (
	RoleDeclaration Role = "declaration"
	RoleDefinition  Role = "definition"
	RoleReference   Role = "reference"
	RoleCall        Role = "call"
	RoleCalledBy    Role = "called-by"
	RoleBaseOf      Role = "base-of"
	RoleOverrideOf  Role = "override-of"
	RoleExtendedBy  Role = "extended-by"
	RoleChildOf     Role = "child-of"
	RoleAccessorOf  Role = "accessor-of"
	RoleSystem      Role = "system"
)

// Occurrence is one (path, line, utf8-column) hit for a USR.
type Occurrence struct {
	Path      string
	Line      int
	UTF8Col   int
	Roles     []Role
	Symbol    string
	USR       string
	Relations map[string][]string // relation kind -> related USRs
}

// HasRole reports whether o carries role.
func (o Occurrence) HasRole(role Role) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Index is the external symbol index interface from spec §6.
type Index interface {
	// Occurrences returns every occurrence of usr carrying any of roles.
	Occurrences(ctx context.Context, usr string, roles []Role) ([]Occurrence, error)
	// RelatedOccurrences returns occurrences of symbols related-to usr
	// carrying any of roles (e.g. base-of / override-of traversal).
	RelatedOccurrences(ctx context.Context, usr string, roles []Role) ([]Occurrence, error)
	// ForEachCanonicalSymbolOccurrence runs a substring/subsequence
	// search over canonical symbol names, invoking callback per match.
	// ignoreCase controls case sensitivity; anchors restricts matches to
	// symbol name boundaries the caller defines.
	ForEachCanonicalSymbolOccurrence(ctx context.Context, substring string, anchors bool, subsequence bool, ignoreCase bool, callback func(Occurrence) bool) error
	// PollForUnitChangesAndWait blocks until the index observes a unit
	// change (or ctx is cancelled), for callers that need up-to-date
	// results after a build.
	PollForUnitChangesAndWait(ctx context.Context) error
}
