package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/store"
	"github.com/jackzampolin/docex/internal/svcctx"
)

// formOverhead is the allowance for multipart headers on top of the file cap.
const formOverhead = 1 << 20

// FilesListResponse contains stored files.
type FilesListResponse struct {
	Files []*store.File `json:"files"`
}

// DeleteFileResponse confirms a deletion.
type DeleteFileResponse struct {
	FileID  string `json:"file_id"`
	Deleted bool   `json:"deleted"`
}

// UploadEndpoint handles POST /file-upload with a multipart "file" field.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/file-upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload a document
//	@Description	Store an image or PDF for later extraction. Identical content returns the existing file_id.
//	@Tags			files
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Image or PDF"
//	@Success		200		{object}	store.File
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/file-upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := svcctx.StoreFrom(ctx)
	logger := svcctx.LoggerFrom(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, st.MaxBytes()+formOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeUploadError(w, err)
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		f, err := st.Put(ctx, part.FileName(), part)
		part.Close()
		if err != nil {
			logger.Warn("upload rejected", "filename", part.FileName(), "error", err)
			writeUploadError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
		return
	}

	writeError(w, http.StatusBadRequest, "no file provided")
}

func writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrTooLarge), errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
	default:
		writeError(w, http.StatusInternalServerError, "failed to save file")
	}
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp store.File
			if err := client.Upload(cmd.Context(), "/file-upload", args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListFilesEndpoint handles GET /files.
type ListFilesEndpoint struct{}

var _ api.Endpoint = (*ListFilesEndpoint)(nil)

func (e *ListFilesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/files", e.handler
}

func (e *ListFilesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List stored files
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FilesListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/files [get]
func (e *ListFilesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	files, err := svcctx.StoreFrom(r.Context()).List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list files: %v", err))
		return
	}
	if files == nil {
		files = []*store.File{}
	}
	writeJSON(w, http.StatusOK, FilesListResponse{Files: files})
}

func (e *ListFilesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List stored files",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FilesListResponse
			if err := client.Get(cmd.Context(), "/files", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteFileEndpoint handles DELETE /files/{id}.
type DeleteFileEndpoint struct{}

var _ api.Endpoint = (*DeleteFileEndpoint)(nil)

func (e *DeleteFileEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/files/{id}", e.handler
}

func (e *DeleteFileEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a stored file
//	@Tags			files
//	@Produce		json
//	@Param			id	path		string	true	"File ID"
//	@Success		200	{object}	DeleteFileResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/files/{id} [delete]
func (e *DeleteFileEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := svcctx.StoreFrom(r.Context()).Delete(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete file: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, DeleteFileResponse{FileID: id, Deleted: true})
}

func (e *DeleteFileEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file_id>",
		Short: "Delete a stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DeleteFileResponse
			if err := client.Delete(cmd.Context(), "/files/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
