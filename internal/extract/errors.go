package extract

import (
	"errors"

	"github.com/jackzampolin/docex/internal/providers"
	"github.com/jackzampolin/docex/internal/recognize"
)

// ErrUnsupportedMethod is returned for a method outside the supported set.
// It is raised before any file or model access.
var ErrUnsupportedMethod = errors.New("unsupported recognition method")

// Error types reported to callers alongside a processing failure.
const (
	ErrorTypeParse         = "parse_failure"
	ErrorTypeModelCall     = "model_call_failure"
	ErrorTypeRecognition   = "recognition_failure"
	ErrorTypeRasterization = "rasterization_failure"
	ErrorTypeProcessing    = "processing_failure"
)

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedMethod)
}

// ErrorType classifies a processing error. Parse failures are checked
// before model-call failures so a malformed reply is never reported as an
// unreachable service.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, providers.ErrParse):
		return ErrorTypeParse
	case errors.Is(err, providers.ErrModelCall):
		return ErrorTypeModelCall
	case errors.Is(err, recognize.ErrRasterize):
		return ErrorTypeRasterization
	case errors.Is(err, recognize.ErrRecognition):
		return ErrorTypeRecognition
	default:
		return ErrorTypeProcessing
	}
}
