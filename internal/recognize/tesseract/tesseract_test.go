package tesseract

import (
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank lines dropped", "INVOICE\n\n  \nINV-001\n", []string{"INVOICE", "INV-001"}},
		{"trimmed", "  Total: 10  \r\n", []string{"Total: 10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	e := New(nil, nil)
	if !reflect.DeepEqual(e.Languages(), []string{"tur", "eng"}) {
		t.Errorf("Languages() = %v", e.Languages())
	}

	e = New([]string{"deu"}, nil)
	if !reflect.DeepEqual(e.Languages(), []string{"deu"}) {
		t.Errorf("Languages() = %v", e.Languages())
	}

	// Closing an engine that never loaded is a no-op.
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
