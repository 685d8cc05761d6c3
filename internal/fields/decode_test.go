package fields

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSpec_UnmarshalJSON(t *testing.T) {
	t.Run("list becomes key list", func(t *testing.T) {
		var s Spec
		if err := json.Unmarshal([]byte(`["invoice_number","total_amount"]`), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if s.Shape() != ShapeKeyList {
			t.Errorf("Shape() = %v, want key_list", s.Shape())
		}
		_, keys := Normalize(s)
		if !reflect.DeepEqual(keys, []string{"invoice_number", "total_amount"}) {
			t.Errorf("keys = %v", keys)
		}
	})

	t.Run("object keeps caller order", func(t *testing.T) {
		var s Spec
		data := `{"zeta":"integer","alpha":"who sent it","mid":"date"}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if s.Shape() != ShapeShortValueMap {
			t.Errorf("Shape() = %v, want short_value_map", s.Shape())
		}
		specs, keys := Normalize(s)
		if !reflect.DeepEqual(keys, []string{"zeta", "alpha", "mid"}) {
			t.Fatalf("keys = %v", keys)
		}
		if specs[0].TypeHint != "integer" || specs[1].Description != "who sent it" || specs[2].TypeHint != "date" {
			t.Errorf("unexpected specs: %+v", specs)
		}
	})

	t.Run("all objects becomes detailed map", func(t *testing.T) {
		var s Spec
		data := `{"tax_id":{"name":"Tax ID","type":"integer","description":"10-digit number"},"date":{}}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if s.Shape() != ShapeDetailedMap {
			t.Errorf("Shape() = %v, want detailed_map", s.Shape())
		}
		specs, _ := Normalize(s)
		want := FieldSpec{Key: "tax_id", DisplayName: "Tax ID", Description: "10-digit number", TypeHint: "integer"}
		if specs[0] != want {
			t.Errorf("specs[0] = %+v, want %+v", specs[0], want)
		}
		if specs[1].DisplayName != "date" || specs[1].TypeHint != "string" {
			t.Errorf("specs[1] = %+v, want defaults", specs[1])
		}
	})

	t.Run("mixed values are normalized per entry", func(t *testing.T) {
		var s Spec
		data := `{"a":{"type":"float"},"b":"bool","c":7,"d":null,"e":{"name":null,"type":""}}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		specs, _ := Normalize(s)
		if specs[0].TypeHint != "float" || specs[0].DisplayName != "a" {
			t.Errorf("specs[0] = %+v", specs[0])
		}
		if specs[1].TypeHint != "bool" {
			t.Errorf("specs[1] = %+v", specs[1])
		}
		if specs[2].Description != "7" {
			t.Errorf("specs[2] = %+v", specs[2])
		}
		if specs[3].Description != "" || specs[3].TypeHint != "string" {
			t.Errorf("specs[3] = %+v", specs[3])
		}
		if specs[4].DisplayName != "e" || specs[4].TypeHint != "" {
			t.Errorf("specs[4] = %+v", specs[4])
		}
	})

	t.Run("duplicate object keys are kept", func(t *testing.T) {
		var s Spec
		if err := json.Unmarshal([]byte(`{"a":"x","a":"y"}`), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		_, keys := Normalize(s)
		if !reflect.DeepEqual(keys, []string{"a", "a"}) {
			t.Errorf("keys = %v", keys)
		}
	})

	t.Run("null leaves spec unset", func(t *testing.T) {
		var req struct {
			Fields Spec `json:"fields"`
		}
		if err := json.Unmarshal([]byte(`{"fields":null}`), &req); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !req.Fields.IsZero() {
			t.Error("expected zero spec")
		}
	})

	t.Run("rejects other shapes", func(t *testing.T) {
		for _, data := range []string{`"invoice"`, `42`, `true`} {
			var s Spec
			err := json.Unmarshal([]byte(data), &s)
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("%s: error = %v, want ErrInvalidSpec", data, err)
			}
		}
	})

	t.Run("rejects non-string list entries", func(t *testing.T) {
		var s Spec
		if err := json.Unmarshal([]byte(`["a", 1]`), &s); err == nil {
			t.Error("expected error for non-string list entry")
		}
	})
}
