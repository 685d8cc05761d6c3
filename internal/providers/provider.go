package providers

import (
	"context"
	"time"
)

// LLMClient is the interface for chat/completion requests against a
// hosted language or vision model.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// Response format types.
const (
	ResponseFormatJSONObject = "json_object"
	ResponseFormatText       = "text"
)

// Image detail levels for vision requests.
const (
	ImageDetailAuto = "auto"
	ImageDetailLow  = "low"
	ImageDetailHigh = "high"
)

// ImageURL is an image attachment, usually a base64 data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // "auto", "low", "high"
}

// Message represents a chat message.
type Message struct {
	Role    string     `json:"role"` // "system", "user", "assistant"
	Content string     `json:"content"`
	Images  []ImageURL `json:"images,omitempty"` // For vision models, sent after the text part
}

// ResponseFormat requests a structured response mode.
type ResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Temperature is a pointer so an explicit 0 is sent.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	ExecutionTime time.Duration `json:"execution_time"`
}

// Temperature returns a pointer to t for ChatRequest.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// UserMessage builds a user message with optional image attachments.
func UserMessage(content string, images ...ImageURL) Message {
	return Message{Role: "user", Content: content, Images: images}
}
