package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FilesHandler serves stored face and evidence images.
type FilesHandler struct {
	files FileStore
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(files FileStore) *FilesHandler {
	return &FilesHandler{files: files}
}

// contentTypeFor maps stored image extensions to content types.
func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Serve returns a stored file by its store-relative path.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		respondError(w, http.StatusBadRequest, "file path is required")
		return
	}

	data, err := h.files.Read(rel)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(rel))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
