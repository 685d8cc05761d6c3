package fields

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestReconcile(t *testing.T) {
	t.Run("missing keys become null", func(t *testing.T) {
		_, keys := Normalize(KeyList("invoice_number", "total_amount"))
		got := Reconcile(keys, map[string]any{"invoice_number": "INV-001"})

		data, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"invoice_number":"INV-001","total_amount":null}`
		if string(data) != want {
			t.Errorf("got %s, want %s", data, want)
		}
	})

	t.Run("extra keys are dropped and order follows caller", func(t *testing.T) {
		model := map[string]any{"c": 3.0, "extra": "x", "a": 1.0}
		got := Reconcile([]string{"a", "b", "c"}, model)

		if !reflect.DeepEqual(got.Keys(), []string{"a", "b", "c"}) {
			t.Fatalf("Keys() = %v", got.Keys())
		}
		if _, ok := got.Get("extra"); ok {
			t.Error("extra key should be dropped")
		}
		if v, _ := got.Get("b"); v != nil {
			t.Errorf("b = %v, want nil", v)
		}
		if v, _ := got.Get("c"); v != 3.0 {
			t.Errorf("c = %v, want 3", v)
		}
	})

	t.Run("nil model answer", func(t *testing.T) {
		got := Reconcile([]string{"a"}, nil)
		if got.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", got.Len())
		}
		if v, ok := got.Get("a"); !ok || v != nil {
			t.Errorf("a = %v (present %v), want nil present", v, ok)
		}
	})

	t.Run("duplicate keys appear once", func(t *testing.T) {
		got := Reconcile([]string{"a", "b", "a"}, map[string]any{"a": "x"})
		if !reflect.DeepEqual(got.Keys(), []string{"a", "b"}) {
			t.Errorf("Keys() = %v", got.Keys())
		}
	})

	t.Run("same key set for any model answer", func(t *testing.T) {
		keys := []string{"x", "y"}
		answers := []map[string]any{
			{},
			{"y": 1.0, "x": 2.0},
			{"z": true},
			{"x": nil, "y": []any{"a"}, "w": "drop"},
		}
		for _, answer := range answers {
			got := Reconcile(keys, answer)
			if !reflect.DeepEqual(got.Keys(), keys) {
				t.Errorf("answer %v: Keys() = %v, want %v", answer, got.Keys(), keys)
			}
		}
	})
}

func TestValues_JSONRoundTrip(t *testing.T) {
	in := `{"zeta":"1","alpha":12345678901234567890,"nested":{"k":[1,2]},"none":null}`

	var v Values
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(v.Keys(), []string{"zeta", "alpha", "nested", "none"}) {
		t.Fatalf("Keys() = %v", v.Keys())
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("round trip = %s, want %s", out, in)
	}
}

func TestValues_MarshalYAML(t *testing.T) {
	v := Reconcile([]string{"total", "vendor", "items"}, map[string]any{
		"total":  json.Number("42.5"),
		"vendor": "ACME",
		"items":  []any{json.Number("1"), "two"},
	})

	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	got := string(data)
	if !strings.HasPrefix(got, "total: 42.5\nvendor: ACME\nitems:") {
		t.Errorf("unexpected YAML order or formatting:\n%s", got)
	}
	if strings.Contains(got, `"42.5"`) {
		t.Errorf("number rendered as string:\n%s", got)
	}
}

func TestValues_Zero(t *testing.T) {
	var v Values
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("got %s, want {}", data)
	}
}

func TestValues_Map(t *testing.T) {
	v := Reconcile([]string{"a", "b"}, map[string]any{"a": "x"})
	m := v.Map()
	if !reflect.DeepEqual(m, map[string]any{"a": "x", "b": nil}) {
		t.Errorf("Map() = %v", m)
	}
	m["a"] = "changed"
	if got, _ := v.Get("a"); got != "x" {
		t.Errorf("Map() shares storage: a = %v", got)
	}
}
