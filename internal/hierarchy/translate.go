// Package hierarchy implements definition/references/implementation
// and call/type-hierarchy navigation (C9), fusing live adapter queries
// with the persistent symbol index, plus workspace-symbol search.
//
// Grounded on spec.md §4.8 — no pack example performs index-backed
// navigation, so this is new code following the document package's
// line-table conventions for position arithmetic.
package hierarchy

import (
	"fmt"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/service"
)

// FileReader loads a file's current text for column conversion, when
// no open buffer covers it.
type FileReader func(path string) (string, error)

// TranslateLocation converts an index occurrence's 1-based line and
// UTF-8 byte column into an LSP-shaped service.Location with a
// 0-based line and UTF-16 column.
//
// Known precision limit (spec §9 open question): this conversion
// reads the file's current text to resolve the UTF-16 column. If the
// file on disk has changed since the index was built, the reported
// column may be wrong; the core has no way to detect that staleness
// from here, so it is documented rather than silently guarded against.
func TranslateLocation(o index.Occurrence, read FileReader) (service.Location, error) {
	text, err := read(o.Path)
	if err != nil {
		return service.Location{}, fmt.Errorf("hierarchy: reading %s for column translation: %w", o.Path, err)
	}

	lines := document.NewLineTable(text)
	line := o.Line - 1 // occurrences are 1-based; LSP is 0-based
	if line < 0 {
		line = 0
	}

	byteOff, err := lines.UTF8ToByteOffset(line, o.UTF8Col)
	if err != nil {
		return service.Location{}, fmt.Errorf("hierarchy: translating %s:%d:%d: %w", o.Path, o.Line, o.UTF8Col, err)
	}
	_, utf16Col, err := lines.ByteOffsetToUTF16(byteOff)
	if err != nil {
		return service.Location{}, fmt.Errorf("hierarchy: translating %s:%d:%d: %w", o.Path, o.Line, o.UTF8Col, err)
	}

	r := document.Range{StartLine: line, StartCol: utf16Col, EndLine: line, EndCol: utf16Col}
	return service.Location{URI: document.URI(o.Path), Range: r}, nil
}

// translateAll translates every occurrence in occs, skipping (with no
// error) any that fail translation — a single unreadable file should
// not fail an entire navigation request.
func translateAll(occs []index.Occurrence, read FileReader) []service.Location {
	out := make([]service.Location, 0, len(occs))
	for _, o := range occs {
		loc, err := TranslateLocation(o, read)
		if err != nil {
			continue
		}
		out = append(out, loc)
	}
	return out
}
