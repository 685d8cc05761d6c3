package extraction

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/prompts"
)

func TestFieldLines(t *testing.T) {
	tests := []struct {
		name string
		spec fields.FieldSpec
		want string
	}{
		{
			name: "full",
			spec: fields.FieldSpec{Key: "tax_id", DisplayName: "Tax ID", Description: "10-digit number", TypeHint: "integer"},
			want: `- "tax_id": Tax ID (integer) - 10-digit number`,
		},
		{
			name: "default type is shown",
			spec: fields.FieldSpec{Key: "vendor", DisplayName: "Vendor", TypeHint: "string"},
			want: `- "vendor": Vendor (string)`,
		},
		{
			name: "empty type omitted",
			spec: fields.FieldSpec{Key: "notes", DisplayName: "notes", Description: "free text"},
			want: `- "notes": notes - free text`,
		},
		{
			name: "bare",
			spec: fields.FieldSpec{Key: "x", DisplayName: "X"},
			want: `- "x": X`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldLines([]fields.FieldSpec{tt.spec})
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("FieldLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldLines_DetailedScenario(t *testing.T) {
	specs, _ := fields.Normalize(fields.DetailedMap(fields.Detailed("tax_id", fields.Detail{
		Name:        fields.Str("Tax ID"),
		Type:        fields.Str("integer"),
		Description: fields.Str("10-digit number"),
	})))

	line := FieldLines(specs)[0]
	if !strings.Contains(line, `"tax_id"`) {
		t.Errorf("line %q missing quoted key", line)
	}
	if strings.Contains(line, "Tax Id") {
		t.Errorf("line %q used the humanized fallback", line)
	}
	if !strings.Contains(line, "(integer)") {
		t.Errorf("line %q missing type", line)
	}
}

func TestTextPrompt(t *testing.T) {
	specs, _ := fields.Normalize(fields.KeyList("invoice_number", "total_amount"))
	got := TextPrompt("INVOICE INV-001 {{ not a template }}", specs)

	wantBlock := "## Requested Fields:\n- \"invoice_number\": Invoice Number (string)\n- \"total_amount\": Total Amount (string)\n\n## OCR Text:\nINVOICE INV-001 {{ not a template }}\n\n## Instructions:"
	if !strings.Contains(got, wantBlock) {
		t.Errorf("prompt missing field/text block:\n%s", got)
	}
	if !strings.HasPrefix(got, "You are a document data extraction assistant.") {
		t.Errorf("unexpected prompt start:\n%s", got)
	}
	if !strings.HasSuffix(got, "Return ONLY a valid JSON object with the field keys and their extracted values.") {
		t.Errorf("unexpected prompt end:\n%s", got)
	}
}

func TestVisionPrompt(t *testing.T) {
	specs, _ := fields.Normalize(fields.ShortValueMap(fields.Short("total", "float")))
	got := VisionPrompt(specs)

	if !strings.Contains(got, "## Requested Fields:\n- \"total\": Total (float)\n\n## Instructions:") {
		t.Errorf("prompt missing field block:\n%s", got)
	}
	if !strings.Contains(got, `Return a JSON object with two keys: "raw_text" and "fields"`) {
		t.Errorf("prompt missing two-key contract:\n%s", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("prompt has unrendered template markers:\n%s", got)
	}
}

func TestBuild_Override(t *testing.T) {
	dir := t.TempDir()
	r := prompts.NewResolver(dir, nil)
	RegisterPrompts(r)

	specs, _ := fields.Normalize(fields.KeyList("a"))
	data := Data{Fields: FieldBlock(specs), Text: "hello"}

	got, err := Build(r, TextPromptKey, data)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != TextPrompt("hello", specs) {
		t.Errorf("default build differs from TextPrompt")
	}

	override := "Fields:\n{{.Fields}}\nText: {{.Text}}\n"
	if err := os.WriteFile(filepath.Join(dir, TextPromptKey+".tmpl"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	got, err = Build(r, TextPromptKey, data)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := "Fields:\n- \"a\": A (string)\nText: hello"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuild_NilResolver(t *testing.T) {
	got, err := Build(nil, VisionPromptKey, Data{Fields: `- "a": A (string)`})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.HasPrefix(got, "You are an OCR and document data extraction assistant.") {
		t.Errorf("unexpected prompt:\n%s", got)
	}
}
