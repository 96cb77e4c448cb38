package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mkrejcir/face-attendance/internal/database"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db         Pinger
	students   database.StudentStore
	ledger     database.AttendanceLedger
	uploadDir  string
	version    string
	comparator string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, students database.StudentStore, ledger database.AttendanceLedger, uploadDir, version, comparator string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		students:   students,
		ledger:     ledger,
		uploadDir:  uploadDir,
		version:    version,
		comparator: comparator,
	}
}

// Check reports liveness together with the headline numbers a dashboard
// polls for: registered students and today's attendance count.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.Count(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	today, err := h.ledger.CountForDay(r.Context(), time.Now())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         h.version,
		"students":        students,
		"attendanceToday": today,
	})
}

// Detailed reports the state of each dependency. The endpoint returns 503
// when any component is down so load balancers can act on it.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	healthy := true

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			components["database"] = "down: " + err.Error()
			healthy = false
		} else {
			components["database"] = "ok"
		}
	}

	if info, err := os.Stat(h.uploadDir); err != nil || !info.IsDir() {
		components["storage"] = "down: upload directory unavailable"
		healthy = false
	} else {
		components["storage"] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status":     status,
		"version":    h.version,
		"comparator": h.comparator,
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}
