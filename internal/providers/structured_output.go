package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON Schema document for reply validation.
func CompileSchema(name string, schema []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// MustCompileSchema is like CompileSchema but panics on error.
// Use it for schemas embedded in code.
func MustCompileSchema(name string, schema []byte) *jsonschema.Schema {
	s, err := CompileSchema(name, schema)
	if err != nil {
		panic(err)
	}
	return s
}

// CompleteJSON sends req in JSON-object response mode and decodes the reply.
// A failed call wraps ErrModelCall. A reply that is not a single JSON object,
// or that fails schema validation when schema is non-nil, wraps ErrParse.
// Numbers are kept as json.Number.
func CompleteJSON(ctx context.Context, client LLMClient, req *ChatRequest, schema *jsonschema.Schema) (map[string]any, *ChatResult, error) {
	if req.ResponseFormat == nil {
		req.ResponseFormat = &ResponseFormat{Type: ResponseFormatJSONObject}
	}

	result, err := client.Chat(ctx, req)
	if err != nil {
		return nil, result, fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	obj, err := DecodeObject(result.Content)
	if err != nil {
		return nil, result, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if schema != nil {
		if err := schema.Validate(obj); err != nil {
			return nil, result, fmt.Errorf("%w: reply does not match schema: %w", ErrParse, err)
		}
	}

	return obj, result, nil
}

// DecodeObject strictly decodes content as exactly one JSON object.
func DecodeObject(content string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after JSON object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}
