package extraction

import (
	_ "embed"
	"strings"

	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/prompts"
)

//go:embed text.tmpl
var textPromptTmpl string

//go:embed vision.tmpl
var visionPromptTmpl string

// Prompt keys
const (
	TextPromptKey   = "extraction.text"
	VisionPromptKey = "extraction.vision"
)

// Data is the template input for both extraction prompts.
type Data struct {
	Fields string // Rendered field block, one line per field
	Text   string // Recognized text (text prompt only)
}

// FieldLines renders one line per field:
//
//   - "key": Display Name (type) - description
//
// The type is omitted when empty, the description when empty.
func FieldLines(specs []fields.FieldSpec) []string {
	lines := make([]string, 0, len(specs))
	for _, fs := range specs {
		var b strings.Builder
		b.WriteString(`- "`)
		b.WriteString(fs.Key)
		b.WriteString(`": `)
		b.WriteString(fs.DisplayName)
		if fs.TypeHint != "" {
			b.WriteString(" (")
			b.WriteString(fs.TypeHint)
			b.WriteString(")")
		}
		if fs.Description != "" {
			b.WriteString(" - ")
			b.WriteString(fs.Description)
		}
		lines = append(lines, b.String())
	}
	return lines
}

// FieldBlock joins FieldLines with newlines.
func FieldBlock(specs []fields.FieldSpec) string {
	return strings.Join(FieldLines(specs), "\n")
}

// TextPrompt builds the text-parsing prompt from the embedded template.
func TextPrompt(text string, specs []fields.FieldSpec) string {
	out, err := prompts.Render(TextPromptKey, textPromptTmpl, Data{Fields: FieldBlock(specs), Text: text})
	if err != nil {
		return textPromptTmpl
	}
	return out
}

// VisionPrompt builds the vision-extraction prompt from the embedded template.
func VisionPrompt(specs []fields.FieldSpec) string {
	out, err := prompts.Render(VisionPromptKey, visionPromptTmpl, Data{Fields: FieldBlock(specs)})
	if err != nil {
		return visionPromptTmpl
	}
	return out
}

// Build renders key through the resolver so operator overrides apply.
// A nil resolver renders the embedded default.
func Build(r *prompts.Resolver, key string, data Data) (string, error) {
	text := embeddedText(key)
	if r != nil {
		resolved, err := r.Resolve(key)
		if err != nil {
			return "", err
		}
		text = resolved.Text
	}
	return prompts.Render(key, text, data)
}

func embeddedText(key string) string {
	if key == VisionPromptKey {
		return visionPromptTmpl
	}
	return textPromptTmpl
}

// RegisterPrompts registers the extraction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         TextPromptKey,
		Text:        textPromptTmpl,
		Description: "Field extraction over recognized text - returns a flat JSON object keyed by field",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         VisionPromptKey,
		Text:        visionPromptTmpl,
		Description: "Vision extraction - returns raw_text and fields from a document image",
	})
}
