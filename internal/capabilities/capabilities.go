// Package capabilities implements capability negotiation (C11): the
// static server capability set spec §6 enumerates, merged with
// per-adapter dynamic registrations collected as adapters report their
// own server capabilities during C6's registry lifecycle (spec §4.6
// step 5).
//
// Grounded on spec.md §6's explicit capability list; no pack example
// performs LSP capability negotiation, so this is new code, reusing
// the teacher's plain-struct config shape rather than inventing a
// builder API.
package capabilities

import "sort"

// CompletionOptions mirrors the LSP completion registration options
// this server needs.
type CompletionOptions struct {
	TriggerCharacters []string
}

// ExecuteCommandOptions mirrors the LSP execute-command registration;
// the command list is backend-dependent (spec §6), so it is the union
// of every adapter's reported commands.
type ExecuteCommandOptions struct {
	Commands []string
}

// WorkspaceFoldersOptions mirrors the LSP workspace-folders capability.
type WorkspaceFoldersOptions struct {
	Supported           bool
	ChangeNotifications bool
}

// ServerCapabilities is the merged capability set sent to the client
// at initialize (and re-sent via dynamic registration afterward).
type ServerCapabilities struct {
	TextDocumentSyncIncremental bool
	OpenClose                   bool
	Completion                  *CompletionOptions
	Definition                  bool
	Declaration                 bool
	References                  bool
	Implementation              bool
	Hover                       bool
	DocumentSymbol              bool
	DocumentHighlight           bool
	WorkspaceSymbol             bool
	DocumentColor               bool
	ColorPresentation           bool
	CodeAction                  bool
	FoldingRange                bool
	ExecuteCommand              *ExecuteCommandOptions
	WorkspaceFolders            *WorkspaceFoldersOptions
	CallHierarchy               bool
	TypeHierarchy               bool
}

// Static returns the baseline capability set spec §6 declares
// unconditionally, before any adapter has registered dynamically.
func Static() ServerCapabilities {
	return ServerCapabilities{
		TextDocumentSyncIncremental: true,
		OpenClose:                   true,
		Completion:                  &CompletionOptions{TriggerCharacters: []string{"."}},
		Definition:                  true,
		Declaration:                 true,
		References:                  true,
		Implementation:              true,
		Hover:                       true,
		DocumentSymbol:              true,
		DocumentHighlight:           true,
		WorkspaceSymbol:             true,
		DocumentColor:               true,
		ColorPresentation:           true,
		CodeAction:                  true,
		FoldingRange:                true,
		ExecuteCommand:              &ExecuteCommandOptions{},
		WorkspaceFolders:            &WorkspaceFoldersOptions{Supported: true, ChangeNotifications: true},
		CallHierarchy:               true,
		TypeHierarchy:               true,
	}
}

func dedupeSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	sort.Strings(out)
	return out
}
