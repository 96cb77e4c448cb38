package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/importer"
)

// clearConfirmation must be passed explicitly to wipe the ledger.
const clearConfirmation = "yes-clear-all"

// MigrateHandler handles legacy data migration endpoints.
type MigrateHandler struct {
	ledger database.AttendanceLedger
}

// NewMigrateHandler creates a new migration handler.
func NewMigrateHandler(ledger database.AttendanceLedger) *MigrateHandler {
	return &MigrateHandler{ledger: ledger}
}

// migrateRecordRequest mirrors the row shape of the legacy export. All
// fields arrive as strings, parsed with the same leniency as the CSV path.
type migrateRecordRequest struct {
	StudentID      string `json:"studentId"`
	AttendanceDate string `json:"attendanceDate"`
	CheckInTime    string `json:"checkInTime"`
	PhotoPath      string `json:"photoPath"`
	Confidence     string `json:"confidence"`
}

// ImportRecord migrates a single legacy attendance record posted as JSON.
// The write is idempotent: an existing entry for the same student and day
// is reported as skipped, not an error.
func (h *MigrateHandler) ImportRecord(w http.ResponseWriter, r *http.Request) {
	var req migrateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event, err := importer.ParseRecord(req.StudentID, req.AttendanceDate, req.CheckInTime, req.PhotoPath, req.Confidence)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ledger.RecordIfAbsent(r.Context(), event)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]any{
		"created": result.Created,
		"event":   toEventResponse(result.Event),
	})
}

// ImportCSV loads a CSV export of a legacy attendance system in bulk.
// Expects a multipart form with the CSV under "file". Rows that already
// exist or reference unknown students are skipped, not errors.
func (h *MigrateHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "csv file is required")
		return
	}
	defer file.Close()

	result, err := importer.New(h.ledger).Run(r.Context(), file, importer.Options{})
	if err != nil {
		log.Printf("attendance import from %s failed: %v", sanitizeForLog(header.Filename), err)
		respondError(w, http.StatusInternalServerError, "import failed")
		return
	}

	messages := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		messages = append(messages, e.Error())
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"imported":  result.Imported,
		"skipped":   result.Skipped,
		"malformed": result.Malformed,
		"errors":    messages,
	})
}

// Clear wipes all attendance events. Destructive, so it requires
// ?confirmation=yes-clear-all.
func (h *MigrateHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirmation") != clearConfirmation {
		respondError(w, http.StatusBadRequest, "confirmation=yes-clear-all is required")
		return
	}

	purged, err := h.ledger.Purge(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	log.Printf("purged %d attendance events", purged)
	respondJSON(w, http.StatusOK, map[string]any{
		"purged": purged,
	})
}
