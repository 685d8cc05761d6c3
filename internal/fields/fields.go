// Package fields normalizes caller-supplied field specifications into an
// ordered list of field descriptors and reconciles model answers back onto
// the caller's original key set.
//
// A specification arrives in one of three shapes:
//   - KeyList: ["invoice_number", "total_amount"]
//   - ShortValueMap: {"total_amount": "float", "vendor": "company that issued it"}
//   - DetailedMap: {"tax_id": {"name": "Tax ID", "type": "integer", "description": "10 digits"}}
//
// Normalization never fails. Unexpected values degrade to a plain string
// field rather than producing an error.
package fields

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultType is the type hint used when none is given.
const DefaultType = "string"

// typeKeywords are short values that are read as a type hint instead of a description.
var typeKeywords = map[string]bool{
	"string":  true,
	"integer": true,
	"int":     true,
	"float":   true,
	"number":  true,
	"boolean": true,
	"bool":    true,
	"date":    true,
	"list":    true,
	"array":   true,
}

// FieldSpec is the canonical descriptor of one requested field.
type FieldSpec struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	TypeHint    string `json:"type_hint"`
}

// Shape identifies which of the accepted input shapes a Spec was built from.
type Shape int

const (
	ShapeKeyList Shape = iota + 1
	ShapeShortValueMap
	ShapeDetailedMap
)

func (s Shape) String() string {
	switch s {
	case ShapeKeyList:
		return "key_list"
	case ShapeShortValueMap:
		return "short_value_map"
	case ShapeDetailedMap:
		return "detailed_map"
	default:
		return "empty"
	}
}

// Spec is a caller-supplied field specification. Build one with KeyList,
// ShortValueMap or DetailedMap, or decode it from JSON.
type Spec struct {
	shape   Shape
	keys    []string
	entries []Entry
}

// Entry is one key of a map-shaped specification.
type Entry struct {
	Key   string
	Value Value
}

// KeyList builds a specification from bare field keys.
func KeyList(keys ...string) Spec {
	return Spec{shape: ShapeKeyList, keys: append([]string(nil), keys...)}
}

// ShortValueMap builds a specification whose values are type keywords or
// free-text descriptions.
func ShortValueMap(entries ...Entry) Spec {
	return Spec{shape: ShapeShortValueMap, entries: append([]Entry(nil), entries...)}
}

// DetailedMap builds a specification whose values are detailed descriptors.
func DetailedMap(entries ...Entry) Spec {
	return Spec{shape: ShapeDetailedMap, entries: append([]Entry(nil), entries...)}
}

// Short returns a short-value entry.
func Short(key, value string) Entry {
	return Entry{Key: key, Value: Text(value)}
}

// Detailed returns a detailed-descriptor entry.
func Detailed(key string, d Detail) Entry {
	return Entry{Key: key, Value: Object(d)}
}

// Shape reports which constructor built the specification.
func (s Spec) Shape() Shape {
	return s.shape
}

// IsZero reports whether the specification was never set.
func (s Spec) IsZero() bool {
	return s.shape == 0
}

// Len returns the number of requested fields, duplicates included.
func (s Spec) Len() int {
	if s.shape == ShapeKeyList {
		return len(s.keys)
	}
	return len(s.entries)
}

type valueKind int

const (
	textValue valueKind = iota
	objectValue
	scalarValue
)

// Value is the value side of a map entry: a string, a detailed descriptor,
// or some other scalar the caller sent.
type Value struct {
	kind   valueKind
	text   string
	detail Detail
	scalar any
}

// Text wraps a short string value.
func Text(s string) Value {
	return Value{kind: textValue, text: s}
}

// Object wraps a detailed descriptor.
func Object(d Detail) Value {
	return Value{kind: objectValue, detail: d}
}

// Scalar wraps any other value (number, boolean, null, list).
func Scalar(v any) Value {
	return Value{kind: scalarValue, scalar: v}
}

// Detail is an explicit field descriptor. Nil attributes fall back to defaults.
type Detail struct {
	Name        *string
	Description *string
	Type        *string
}

// Str returns a pointer to s, for building Detail literals.
func Str(s string) *string {
	return &s
}

// Normalize converts a specification into ordered field descriptors and the
// ordered list of original keys. Duplicate keys are kept in both.
func Normalize(spec Spec) ([]FieldSpec, []string) {
	var (
		specs []FieldSpec
		keys  []string
	)

	switch spec.shape {
	case ShapeKeyList:
		for _, key := range spec.keys {
			keys = append(keys, key)
			specs = append(specs, FieldSpec{
				Key:         key,
				DisplayName: Humanize(key),
				TypeHint:    DefaultType,
			})
		}
	case ShapeShortValueMap, ShapeDetailedMap:
		for _, e := range spec.entries {
			keys = append(keys, e.Key)
			specs = append(specs, normalizeEntry(e))
		}
	}

	return specs, keys
}

func normalizeEntry(e Entry) FieldSpec {
	switch e.Value.kind {
	case objectValue:
		d := e.Value.detail
		return FieldSpec{
			Key:         e.Key,
			DisplayName: valueOr(d.Name, e.Key),
			Description: valueOr(d.Description, ""),
			TypeHint:    valueOr(d.Type, DefaultType),
		}
	case scalarValue:
		return FieldSpec{
			Key:         e.Key,
			DisplayName: Humanize(e.Key),
			Description: stringify(e.Value.scalar),
			TypeHint:    DefaultType,
		}
	default:
		if kw := strings.ToLower(strings.TrimSpace(e.Value.text)); typeKeywords[kw] {
			return FieldSpec{
				Key:         e.Key,
				DisplayName: Humanize(e.Key),
				TypeHint:    kw,
			}
		}
		return FieldSpec{
			Key:         e.Key,
			DisplayName: Humanize(e.Key),
			Description: e.Value.text,
			TypeHint:    DefaultType,
		}
	}
}

// IsTypeKeyword reports whether s, trimmed and lower-cased, is a recognized type hint.
func IsTypeKeyword(s string) bool {
	return typeKeywords[strings.ToLower(strings.TrimSpace(s))]
}

// Humanize turns a field key into a display name: underscores become spaces
// and each word is title-cased ("tax_id" -> "Tax Id").
func Humanize(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	prevLetter := false
	for _, r := range strings.ReplaceAll(key, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// stringify renders a non-string value as a description. Falsy values
// (null, false, zero, empty collections) render as "".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if !x {
			return ""
		}
		return strconv.FormatBool(x)
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case []any:
		if len(x) == 0 {
			return ""
		}
	case map[string]any:
		if len(x) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
