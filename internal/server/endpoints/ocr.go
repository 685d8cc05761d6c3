package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/extract"
	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/store"
	"github.com/jackzampolin/docex/internal/svcctx"
)

// maxOCRBody bounds the JSON request body.
const maxOCRBody = 1 << 20

// OCRRequest is the request body for POST /ocr.
type OCRRequest struct {
	FileID string `json:"file_id"`
	Method string `json:"method"`
	// OCR is the older name for Method; used when Method is empty.
	OCR    string          `json:"ocr,omitempty"`
	Fields json.RawMessage `json:"fields" swaggertype:"object"`
}

// OCRResponse is the extraction result.
type OCRResponse struct {
	FileID    string         `json:"file_id"`
	Method    extract.Method `json:"method"`
	RawText   string         `json:"raw_text"`
	Fields    fields.Values  `json:"fields" swaggertype:"object"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// OCREndpoint handles POST /ocr.
type OCREndpoint struct{}

var _ api.Endpoint = (*OCREndpoint)(nil)

func (e *OCREndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/ocr", e.handler
}

func (e *OCREndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract fields from a stored document
//	@Description	Recognizes the file with the chosen method and returns exactly the requested keys.
//	@Description	fields may be a list of keys, a map of key to type or description, or a map of key to {name, type, description}.
//	@Tags			ocr
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OCRRequest	true	"Extraction request"
//	@Success		200		{object}	OCRResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/ocr [post]
func (e *OCREndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)

	var req OCRRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOCRBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	name := req.Method
	if name == "" {
		name = req.OCR
	}
	method, err := extract.ParseMethod(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "fields is required")
		return
	}
	var spec fields.Spec
	if err := json.Unmarshal(req.Fields, &spec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid fields: %v", err))
		return
	}
	if spec.IsZero() {
		writeError(w, http.StatusBadRequest, "fields is required")
		return
	}

	f, err := svcctx.StoreFrom(ctx).Get(ctx, req.FileID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrMissingOnDisk):
			writeError(w, http.StatusNotFound, "File no longer exists on disk")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "File not found")
		default:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to look up file: %v", err))
		}
		return
	}

	result, err := svcctx.EngineFrom(ctx).Process(ctx, method, f.Path, spec)
	if err != nil {
		if extract.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		errType := extract.ErrorType(err)
		logger.Error("OCR processing failed", "file_id", f.ID, "method", method, "error_type", errType, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     fmt.Sprintf("OCR processing failed: %v", err),
			ErrorType: errType,
		})
		return
	}

	writeJSON(w, http.StatusOK, OCRResponse{
		FileID:    f.ID,
		Method:    result.Method,
		RawText:   result.RawText,
		Fields:    result.Fields,
		ElapsedMS: result.Elapsed.Milliseconds(),
	})
}

func (e *OCREndpoint) Command(getServerURL func() string) *cobra.Command {
	var method, fieldsArg string
	cmd := &cobra.Command{
		Use:   "ocr <file_id>",
		Short: "Extract fields from an uploaded file",
		Long: `Extract fields from an uploaded file.

--fields takes JSON inline or @path to read it from a file:
  --fields '["invoice_number","total"]'
  --fields '{"total":"float","vendor":"company that issued the invoice"}'
  --fields @fields.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := api.ReadFieldsArg(fieldsArg)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp OCRResponse
			req := OCRRequest{FileID: args[0], Method: method, Fields: raw}
			if err := client.Post(cmd.Context(), "/ocr", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&method, "method", string(extract.MethodLocal), "Recognition method: local_engine or hosted_vision")
	cmd.Flags().StringVar(&fieldsArg, "fields", "", "Fields to extract, as JSON or @file")
	cmd.MarkFlagRequired("fields")
	return cmd
}
