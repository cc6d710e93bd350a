// Package finding holds the read-only finding document type and the path
// resolution used to pull filterable values out of it. Findings come from a
// shared service and vary in shape across finding types, so resolution is
// lenient: a missing or oddly shaped path yields no values, never an error.
package finding

import "strings"

// Document is one finding as returned by the remote service: a nested
// key/value structure. The engine only reads from it.
type Document map[string]any

// Identifier uniquely names a finding for the remote update capability.
type Identifier struct {
	ID         string `json:"Id"`
	ProductARN string `json:"ProductArn"`
}

// Identifier extracts the finding's unique identifier. The second return is
// false when the document is missing either component.
func (d Document) Identifier() (Identifier, bool) {
	id, _ := d["Id"].(string)
	arn, _ := d["ProductArn"].(string)
	if id == "" || arn == "" {
		return Identifier{}, false
	}
	return Identifier{ID: id, ProductARN: arn}, true
}

// Resolve returns every value reachable at path. Path segments are separated
// by dots; a segment ending in "[]" names a list whose elements the rest of
// the path fans out over. A scalar field yields one value, an absent or
// structurally incompatible path yields none.
func (d Document) Resolve(path string) []any {
	if path == "" {
		return nil
	}
	return resolve(d, strings.Split(path, "."))
}

func resolve(node any, segments []string) []any {
	if len(segments) == 0 {
		if node == nil {
			return nil
		}
		return []any{node}
	}

	seg := segments[0]
	if name, isList := strings.CutSuffix(seg, "[]"); isList {
		items, ok := toList(lookup(node, name))
		if !ok {
			return nil
		}
		var values []any
		for _, item := range items {
			values = append(values, resolve(item, segments[1:])...)
		}
		return values
	}

	child := lookup(node, seg)
	if child == nil {
		return nil
	}
	return resolve(child, segments[1:])
}

func lookup(node any, key string) any {
	switch m := node.(type) {
	case map[string]any:
		return m[key]
	case Document:
		return m[key]
	default:
		return nil
	}
}

// toList accepts the slice shapes produced by JSON decoding and by
// construction in code.
func toList(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(items))
		for i, m := range items {
			out[i] = m
		}
		return out, true
	case []Document:
		out := make([]any, len(items))
		for i, m := range items {
			out[i] = map[string]any(m)
		}
		return out, true
	default:
		return nil, false
	}
}
