package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/svcctx"
)

// ServiceName is reported by GET /health.
const ServiceName = "docex"

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Health check
//	@Description	Reports that the HTTP server is answering
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			if wait > 0 {
				if err := client.WaitReady(ctx, wait); err != nil {
					return fmt.Errorf("server not ready after %s: %w", wait, err)
				}
			}
			var resp HealthResponse
			if err := client.Get(ctx, "/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "Poll until the server answers or the duration elapses")
	return cmd
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server      string      `json:"server"`
	Initialized bool        `json:"initialized"`
	Providers   []string    `json:"llm_providers"`
	OCR         OCRStatus   `json:"ocr"`
	Storage     StoreStatus `json:"storage"`
	Methods     []string    `json:"methods"`
	ConfigFile  string      `json:"config_file,omitempty"`
}

// OCRStatus describes the local recognition setup.
type OCRStatus struct {
	Rasterizer string   `json:"rasterizer"`
	Languages  []string `json:"languages"`
}

// StoreStatus describes the upload store.
type StoreStatus struct {
	Dir        string   `json:"dir"`
	Files      int      `json:"files"`
	MaxBytes   int64    `json:"max_bytes"`
	Extensions []string `json:"extensions"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// Methods lists the accepted recognition methods.
	Methods []string
}

var _ api.Endpoint = (*StatusEndpoint)(nil)

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Registered LLM providers, recognition setup and stored file count
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Server:    "running",
		Providers: []string{},
		Methods:   e.Methods,
	}

	s := svcctx.ServicesFrom(ctx)
	if s == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Initialized = s.Engine != nil && s.Store != nil

	if s.Registry != nil {
		resp.Providers = s.Registry.ListLLM()
	}
	resp.OCR = OCRStatus{Rasterizer: s.Rasterizer, Languages: s.Languages}

	if s.Store != nil {
		resp.Storage.Dir = s.Store.Dir()
		resp.Storage.MaxBytes = s.Store.MaxBytes()
		resp.Storage.Extensions = s.Store.Extensions()
		if files, err := s.Store.List(ctx); err == nil {
			resp.Storage.Files = len(files)
		} else {
			svcctx.LoggerFrom(ctx).Warn("failed to list files for status", "error", err)
		}
	}
	if s.ConfigMgr != nil {
		resp.ConfigFile = s.ConfigMgr.ConfigFile()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
