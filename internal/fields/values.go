package fields

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Values is an ordered mapping from field key to extracted value. It encodes
// to JSON and YAML in key order.
type Values struct {
	keys   []string
	values map[string]any
}

// Reconcile builds the final result from a model answer: exactly the
// original keys, in order, each holding the model's value or nil. Keys the
// model added are dropped. A key requested twice appears once.
func Reconcile(keys []string, model map[string]any) Values {
	v := Values{values: make(map[string]any, len(keys))}
	for _, key := range keys {
		if _, seen := v.values[key]; seen {
			continue
		}
		v.keys = append(v.keys, key)
		v.values[key] = model[key]
	}
	return v
}

// Keys returns the field keys in order.
func (v Values) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Get returns the value for key and whether the key is part of the result.
func (v Values) Get(key string) (any, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Len returns the number of keys.
func (v Values) Len() int {
	return len(v.keys)
}

// Map returns an unordered copy of the values.
func (v Values) Map() map[string]any {
	m := make(map[string]any, len(v.values))
	for k, val := range v.values {
		m[k] = val
	}
	return m
}

// MarshalJSON encodes the values as a JSON object in key order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := json.Marshal(v.values[key])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping its key order.
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*v = Values{}
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("fields result must be an object, got %v", tok)
	}

	out := Values{values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("decode field %q: %w", key, err)
		}
		if _, seen := out.values[key]; !seen {
			out.keys = append(out.keys, key)
		}
		out.values[key] = val
	}
	*v = out
	return nil
}

// MarshalYAML encodes the values as a YAML mapping in key order.
func (v Values) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range v.keys {
		var val yaml.Node
		if err := val.Encode(plain(v.values[key])); err != nil {
			return nil, fmt.Errorf("encode field %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&val,
		)
	}
	return node, nil
}

// plain converts json.Number leaves to Go numbers so YAML renders them unquoted.
func plain(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	default:
		return v
	}
}
