package extract

import (
	"fmt"
	"strings"
)

// Method selects the recognition backend for a request.
type Method string

const (
	// MethodLocal recognizes text on-host, then parses fields with a text model.
	MethodLocal Method = "local_engine"
	// MethodVision sends the document image to a multimodal model.
	MethodVision Method = "hosted_vision"
)

// Legacy method names still accepted on input.
var methodAliases = map[string]Method{
	"easyocr": MethodLocal,
	"llm_ocr": MethodVision,
}

// Methods lists the supported methods.
func Methods() []Method {
	return []Method{MethodLocal, MethodVision}
}

// ParseMethod maps a caller-supplied name to a Method.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch Method(name) {
	case MethodLocal, MethodVision:
		return Method(name), nil
	}
	if m, ok := methodAliases[name]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnsupportedMethod, s, MethodLocal, MethodVision)
}

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	return m == MethodLocal || m == MethodVision
}

func (m Method) String() string {
	return string(m)
}
