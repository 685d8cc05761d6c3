// Package metrics tracks usage of the language-model calls made while
// extracting fields: token counts, latency and outcome per call.
package metrics

import "time"

// Stages a model call can belong to.
const (
	StageTextParse = "text_parse" // local_engine: text model maps OCR text to fields
	StageVision    = "vision"     // hosted_vision: multimodal model reads the image
)

// Metric is one recorded model call.
type Metric struct {
	ID string `json:"id"`

	// Attribution
	Stage    string `json:"stage,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Tokens
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Timing
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
