// Package prompts manages prompt templates with embedded defaults and
// operator overrides.
//
// Embedded .tmpl files in code are the source of truth. An operator can
// replace any of them without rebuilding by dropping a file named
// <key>.tmpl into the override directory (by default <home>/prompts).
//
// Resolution order for a key:
//  1. Override file, if present and non-empty
//  2. Embedded default
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: extraction.text
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key          string   `json:"key"`
	Text         string   `json:"text"`
	Description  string   `json:"description,omitempty"`
	Variables    []string `json:"variables,omitempty"`
	Hash         string   `json:"hash"`
	EmbeddedHash string   `json:"embedded_hash"`
	IsOverride   bool     `json:"is_override"` // true if loaded from the override directory
}
