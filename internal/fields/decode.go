package fields

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSpec is returned when JSON input is neither a list of keys nor an object.
var ErrInvalidSpec = errors.New("fields must be a list of keys or an object")

// UnmarshalJSON decodes a specification while keeping the caller's key order.
// An array of strings becomes a KeyList; an object whose values are all
// objects becomes a DetailedMap; any other object becomes a ShortValueMap.
// A JSON null leaves the specification unset.
func (s *Spec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}

	switch tok {
	case nil:
		*s = Spec{}
		return nil
	case json.Delim('['):
		keys := make([]string, 0)
		for dec.More() {
			var key string
			if err := dec.Decode(&key); err != nil {
				return fmt.Errorf("%w: list entries must be strings", ErrInvalidSpec)
			}
			keys = append(keys, key)
		}
		*s = KeyList(keys...)
		return nil
	case json.Delim('{'):
		var entries []Entry
		allObjects := true
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("decode fields: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("%w: unexpected token %v", ErrInvalidSpec, keyTok)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("decode field %q: %w", key, err)
			}
			v, err := decodeValue(raw)
			if err != nil {
				return fmt.Errorf("decode field %q: %w", key, err)
			}
			if v.kind != objectValue {
				allObjects = false
			}
			entries = append(entries, Entry{Key: key, Value: v})
		}
		if allObjects && len(entries) > 0 {
			*s = DetailedMap(entries...)
		} else {
			*s = ShortValueMap(entries...)
		}
		return nil
	default:
		return fmt.Errorf("%w: got %v", ErrInvalidSpec, tok)
	}
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Scalar(nil), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return Text(s), nil
	case '{':
		var attrs map[string]any
		if err := unmarshalNumbers(trimmed, &attrs); err != nil {
			return Value{}, err
		}
		return Object(Detail{
			Name:        attrString(attrs, "name"),
			Description: attrString(attrs, "description"),
			Type:        attrString(attrs, "type"),
		}), nil
	default:
		var v any
		if err := unmarshalNumbers(trimmed, &v); err != nil {
			return Value{}, err
		}
		return Scalar(v), nil
	}
}

// attrString reads a descriptor attribute. Missing or null attributes return
// nil so the normalizer applies its default; non-string values are rendered.
func attrString(attrs map[string]any, name string) *string {
	v, ok := attrs[name]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	s := fmt.Sprint(v)
	return &s
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
