package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ecomlytics/ecomlytics-engine/pkg/analytics"
	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/auth"
)

// maxUploadBytes caps the size of an uploaded CSV file (32 MB).
const maxUploadBytes = 32 << 20

// UploadHandler handles CSV dataset uploads.
type UploadHandler struct {
	pipeline analytics.PipelineService
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(pipeline analytics.PipelineService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/upload", authMiddleware.RequireAuth(h.Upload))
}

// Upload handles POST /api/upload requests. The request is multipart form
// data with the CSV under "file" and the dataset kind under "type" (form
// field or query parameter).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Expected multipart form data with a file")
		return
	}

	kind := r.FormValue("type")
	if kind == "" {
		kind = r.URL.Query().Get("type")
	}
	if kind == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Missing dataset type")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Missing uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.pipeline.ProcessUpload(r.Context(), kind, file)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnknownKind),
			errors.Is(err, apperrors.ErrMissingColumn),
			errors.Is(err, apperrors.ErrEmptyBatch):
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_file", err.Error())
		default:
			h.logger.Error("Upload processing failed",
				zap.String("filename", header.Filename),
				zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to process upload")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode upload response", zap.Error(err))
	}
}
