package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/ingest"
)

// Ingestor runs a capture through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, capture []byte, originalName string, at time.Time) (ingest.Outcome, error)
}

// AttendanceHandler handles capture ingestion and attendance queries.
type AttendanceHandler struct {
	pipeline Ingestor
	ledger   database.AttendanceLedger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(pipeline Ingestor, ledger database.AttendanceLedger) *AttendanceHandler {
	return &AttendanceHandler{pipeline: pipeline, ledger: ledger}
}

type eventResponse struct {
	ID           string   `json:"id"`
	StudentID    string   `json:"studentId"`
	Date         string   `json:"date"`
	CheckInTime  string   `json:"checkInTime"`
	EvidencePath string   `json:"evidencePath,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

func toEventResponse(e database.AttendanceEvent) eventResponse {
	return eventResponse{
		ID:           e.ID,
		StudentID:    e.StudentID,
		Date:         e.Day.Format(database.DayFormat),
		CheckInTime:  e.CheckInTime.UTC().Format(time.RFC3339),
		EvidencePath: e.EvidencePath,
		Confidence:   e.Confidence,
	}
}

// Capture ingests one camera capture. Expects a multipart form with the
// image under "file" and an optional RFC 3339 "timestamp" field for
// delayed uploads.
func (h *AttendanceHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	data, filename, err := readFormFile(r, "file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "capture image is required")
		return
	}

	var at time.Time
	if raw := strings.TrimSpace(r.FormValue("timestamp")); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "timestamp must be RFC 3339")
			return
		}
	}

	outcome, err := h.pipeline.Ingest(r.Context(), data, filename, at)
	attendanceOutcomes.WithLabelValues(string(outcome.State)).Inc()
	if err != nil {
		log.Printf("capture ingestion failed: %v", err)
		respondStoreError(w, err)
		return
	}

	switch outcome.State {
	case ingest.StateRecorded:
		respondJSON(w, http.StatusCreated, map[string]any{
			"status":     "Present",
			"student":    toStudentResponse(*outcome.Student),
			"confidence": outcome.Confidence,
			"event":      toEventResponse(*outcome.Event),
		})
	case ingest.StateDuplicate:
		respondJSON(w, http.StatusOK, map[string]any{
			"status":     "Duplicate",
			"student":    toStudentResponse(*outcome.Student),
			"confidence": outcome.Confidence,
			"event":      toEventResponse(*outcome.Event),
		})
	case ingest.StateRejected:
		respondJSON(w, http.StatusOK, map[string]any{
			"status":     "No match",
			"confidence": outcome.Confidence,
		})
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Day returns all attendance events recorded on one calendar day.
func (h *AttendanceHandler) Day(w http.ResponseWriter, r *http.Request) {
	day, err := database.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	events, err := h.ledger.FindByDateRange(r.Context(), "", day, day)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":   day.Format(database.DayFormat),
		"count":  len(resp),
		"events": resp,
	})
}

// Range returns attendance events between start and end (inclusive),
// optionally narrowed to a single student via the studentId query param.
func (h *AttendanceHandler) Range(w http.ResponseWriter, r *http.Request) {
	start, err := database.ParseDay(r.URL.Query().Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := database.ParseDay(r.URL.Query().Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	events, err := h.ledger.FindByDateRange(r.Context(), r.URL.Query().Get("studentId"), start, end)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"start":  start.Format(database.DayFormat),
		"end":    end.Format(database.DayFormat),
		"count":  len(resp),
		"events": resp,
	})
}
