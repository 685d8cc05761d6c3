package endpoints

import (
	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/extract"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	methods := make([]string, 0, len(extract.Methods()))
	for _, m := range extract.Methods() {
		methods = append(methods, m.String())
	}

	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{Methods: methods},

		// File endpoints
		&UploadEndpoint{},
		&ListFilesEndpoint{},
		&DeleteFileEndpoint{},

		// Extraction
		&OCREndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Model-call metrics
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
