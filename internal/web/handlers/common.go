package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/filestore"
)

// maxUploadSize caps multipart request bodies (face images and CSV files).
const maxUploadSize = 10 << 20

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps storage and database errors to HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	var validation *database.ValidationError
	var notFound *database.NotFoundError
	var exists *database.AlreadyExistsError
	var fileMissing *filestore.NotFoundError

	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &fileMissing):
		respondError(w, http.StatusNotFound, fileMissing.Error())
	case errors.As(err, &exists):
		respondError(w, http.StatusConflict, exists.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// readFormFile pulls a single named file out of a parsed multipart form.
func readFormFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
