package handler

import (
	"log/slog"
	"net/http"

	"packtree/internal/domain/services"
	"packtree/internal/httputil"
)

// FilesHandler handles upload listing and file assignment requests
type FilesHandler struct {
	fileService services.FileService
	logger      *slog.Logger
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(fileService services.FileService, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// ListUploads lists the files waiting in the uploads directory
// GET /uploads/
func (h *FilesHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.ListUploads(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

type assignBody struct {
	Filename string `json:"filename"`
}

// Assign moves an uploaded file into the assigned area for a package
// POST /package/{id}/assign/
func (h *FilesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body assignBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.fileService.Assign(r.Context(), id, body.Filename)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":            true,
		"package_id":    result.PackageID,
		"original_name": result.OriginalName,
		"assigned_name": result.AssignedName,
	})
}

// Unassign moves a package's assigned file back to uploads and clears the
// assignment field
// POST /package/{id}/unassign/
func (h *FilesHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.fileService.Unassign(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":            true,
		"package_id":    result.PackageID,
		"restored_name": result.RestoredName,
		"file_moved":    result.FileMoved,
	})
}
