package hierarchy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/service"
)

// HierarchyItem is the core's representation of a prepared call- or
// type-hierarchy item. Data is the opaque token spec §4.8 says to
// encode (uri, usr) into; the editor round-trips it verbatim on the
// follow-up incoming/outgoing or super/subtypes request.
type HierarchyItem struct {
	Name  string
	Kind  string
	URI   document.URI
	Range document.Range
	Data  string
}

type itemData struct {
	URI document.URI `json:"uri"`
	USR string       `json:"usr"`
}

func encodeData(uri document.URI, usr string) string {
	b, _ := json.Marshal(itemData{URI: uri, USR: usr})
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeData(data string) (document.URI, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", "", fmt.Errorf("hierarchy: malformed item data: %w", err)
	}
	var d itemData
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", "", fmt.Errorf("hierarchy: malformed item data: %w", err)
	}
	return d.URI, d.USR, nil
}

// IncomingCall is one edge of a call-hierarchy incoming-calls result.
type IncomingCall struct {
	From       HierarchyItem
	FromRanges []document.Range
}

// OutgoingCall is one edge of a call-hierarchy outgoing-calls result.
type OutgoingCall struct {
	To        HierarchyItem
	FromRanges []document.Range
}

// HierarchyNavigator prepares and expands call/type hierarchy items.
type HierarchyNavigator struct {
	Index index.Index
	Read  FileReader
}

func NewHierarchyNavigator(idx index.Index, read FileReader) *HierarchyNavigator {
	return &HierarchyNavigator{Index: idx, Read: read}
}

// prepareItem runs the common "symbol-info, then definition/declaration
// lookup" prefix both prepare-call-hierarchy and prepare-type-hierarchy
// share per spec §4.8.
func (h *HierarchyNavigator) prepareItem(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) (*service.SymbolInfo, service.Location, error) {
	info, err := adapter.SymbolInfo(ctx, uri, pos)
	if err != nil {
		return nil, service.Location{}, err
	}
	if info == nil {
		return nil, service.Location{}, fmt.Errorf("hierarchy: no symbol at position")
	}
	if info.Decl != nil {
		return info, *info.Decl, nil
	}
	if h.Index == nil {
		return info, service.Location{URI: uri}, nil
	}

	occs, err := h.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleDefinition})
	if err != nil {
		return nil, service.Location{}, err
	}
	if len(occs) == 0 {
		occs, err = h.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleDeclaration})
		if err != nil {
			return nil, service.Location{}, err
		}
	}
	if len(occs) == 0 {
		return info, service.Location{URI: uri}, nil
	}
	loc, err := TranslateLocation(occs[0], h.Read)
	if err != nil {
		return info, service.Location{URI: uri}, nil
	}
	return info, loc, nil
}

// PrepareCallHierarchy returns the hierarchy item(s) rooted at pos.
func (h *HierarchyNavigator) PrepareCallHierarchy(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) ([]HierarchyItem, error) {
	info, loc, err := h.prepareItem(ctx, adapter, uri, pos)
	if err != nil {
		return nil, err
	}
	return []HierarchyItem{{
		Name:  strings.TrimSpace(info.Kind + " " + info.USR),
		Kind:  info.Kind,
		URI:   loc.URI,
		Range: loc.Range,
		Data:  encodeData(loc.URI, info.USR),
	}}, nil
}

// IncomingCalls decodes item.Data and runs a called-by index query.
func (h *HierarchyNavigator) IncomingCalls(ctx context.Context, item HierarchyItem) ([]IncomingCall, error) {
	if h.Index == nil {
		return nil, nil
	}
	_, usr, err := decodeData(item.Data)
	if err != nil {
		return nil, err
	}
	occs, err := h.Index.Occurrences(ctx, usr, []index.Role{index.RoleCalledBy})
	if err != nil {
		return nil, err
	}
	out := make([]IncomingCall, 0, len(occs))
	for _, o := range occs {
		loc, err := TranslateLocation(o, h.Read)
		if err != nil {
			continue
		}
		out = append(out, IncomingCall{
			From:       HierarchyItem{Name: o.Symbol, URI: loc.URI, Range: loc.Range, Data: encodeData(loc.URI, o.USR)},
			FromRanges: []document.Range{loc.Range},
		})
	}
	return out, nil
}

// OutgoingCalls decodes item.Data and runs a related call-target query.
func (h *HierarchyNavigator) OutgoingCalls(ctx context.Context, item HierarchyItem) ([]OutgoingCall, error) {
	if h.Index == nil {
		return nil, nil
	}
	_, usr, err := decodeData(item.Data)
	if err != nil {
		return nil, err
	}
	occs, err := h.Index.RelatedOccurrences(ctx, usr, []index.Role{index.RoleCall})
	if err != nil {
		return nil, err
	}
	out := make([]OutgoingCall, 0, len(occs))
	for _, o := range occs {
		loc, err := TranslateLocation(o, h.Read)
		if err != nil {
			continue
		}
		out = append(out, OutgoingCall{
			To:         HierarchyItem{Name: o.Symbol, URI: loc.URI, Range: loc.Range, Data: encodeData(loc.URI, o.USR)},
			FromRanges: []document.Range{loc.Range},
		})
	}
	return out, nil
}

// PrepareTypeHierarchy mirrors PrepareCallHierarchy for types.
func (h *HierarchyNavigator) PrepareTypeHierarchy(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) ([]HierarchyItem, error) {
	return h.PrepareCallHierarchy(ctx, adapter, uri, pos)
}

// Supertypes decodes item.Data and runs a base-of relation query.
func (h *HierarchyNavigator) Supertypes(ctx context.Context, item HierarchyItem) ([]HierarchyItem, error) {
	if h.Index == nil {
		return nil, nil
	}
	_, usr, err := decodeData(item.Data)
	if err != nil {
		return nil, err
	}
	occs, err := h.Index.RelatedOccurrences(ctx, usr, []index.Role{index.RoleDefinition, index.RoleDeclaration})
	if err != nil {
		return nil, err
	}
	return itemsFromOccurrences(occs, h.Read), nil
}

// Subtypes decodes item.Data and runs an extended-by relation query.
func (h *HierarchyNavigator) Subtypes(ctx context.Context, item HierarchyItem) ([]HierarchyItem, error) {
	if h.Index == nil {
		return nil, nil
	}
	_, usr, err := decodeData(item.Data)
	if err != nil {
		return nil, err
	}
	occs, err := h.Index.Occurrences(ctx, usr, []index.Role{index.RoleExtendedBy})
	if err != nil {
		return nil, err
	}
	return itemsFromOccurrences(occs, h.Read), nil
}

func itemsFromOccurrences(occs []index.Occurrence, read FileReader) []HierarchyItem {
	out := make([]HierarchyItem, 0, len(occs))
	for _, o := range occs {
		loc, err := TranslateLocation(o, read)
		if err != nil {
			continue
		}
		out = append(out, HierarchyItem{Name: o.Symbol, URI: loc.URI, Range: loc.Range, Data: encodeData(loc.URI, o.USR)})
	}
	return out
}
