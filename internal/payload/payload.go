// Package payload implements the tagged-variant value tree exchanged
// between the core and the backend channels, and the interner that
// turns well-known protocol keywords into small comparable handles.
//
// A dynamically-typed map[string]interface{} tree (the teacher's
// internal/mangle/lsp.go handleRequest shape) works for a single
// process parsing its own JSON, but it makes map keys expensive to
// compare and forces every caller to re-validate shapes by hand. Value
// re-expresses the same tree as a closed tagged union keyed by
// Ident, a small integer handle, so that key comparisons, map lookups
// and kind switches are all O(1) and exhaustive.
package payload

import "fmt"

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindIdent
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindIdent:
		return "ident"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the payload value space. The zero
// Value is Null. Only one of the typed fields is meaningful, selected
// by Kind; callers must not read a field without checking Kind first.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
	id   Ident
	list []Value
	m    map[Ident]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// FromIdent wraps an interned identifier.
func FromIdent(id Ident) Value { return Value{kind: KindIdent, id: id} }

// List wraps a list of values. The slice is not copied; callers must
// not mutate it after passing ownership to List.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// Map wraps a map from interned identifier to value. The map is not
// copied; callers must not mutate it after passing ownership to Map.
func Map(m map[Ident]Value) Value { return Value{kind: KindMap, m: m} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload and true if v is a KindBool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the int64 payload and true if v is a KindInt.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// String returns the string payload and true if v is a KindString.
func (v Value) String() (string, bool) { return v.s, v.kind == KindString }

// Ident returns the identifier payload and true if v is a KindIdent.
func (v Value) Ident() (Ident, bool) { return v.id, v.kind == KindIdent }

// List returns the list payload and true if v is a KindList.
func (v Value) List() ([]Value, bool) { return v.list, v.kind == KindList }

// Map returns the map payload and true if v is a KindMap.
func (v Value) Map() (map[Ident]Value, bool) { return v.m, v.kind == KindMap }

// Field looks up key in v's map, returning Null if v is not a map or
// the key is absent.
func (v Value) Field(key Ident) Value {
	if v.kind != KindMap {
		return Null()
	}
	if val, ok := v.m[key]; ok {
		return val
	}
	return Null()
}

// GoString renders a Value for debugging; it is not the wire format.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindIdent:
		return fmt.Sprintf("#%d", v.id)
	case KindList:
		return fmt.Sprintf("list[%d]", len(v.list))
	case KindMap:
		return fmt.Sprintf("map[%d]", len(v.m))
	default:
		return "?"
	}
}
