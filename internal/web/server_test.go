package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database/mock"
	"github.com/mkrejcir/face-attendance/internal/facematch"
	"github.com/mkrejcir/face-attendance/internal/filestore"
	"github.com/mkrejcir/face-attendance/internal/ingest"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	uploadDir := t.TempDir()
	files, err := filestore.New(uploadDir)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	students := mock.NewStudentStore()
	ledger := mock.NewLedger()
	selector := facematch.NewSelector(facematch.NewSizeRatioComparator(files), 0.5)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Storage: config.StorageConfig{Root: uploadDir},
	}
	return NewServer(cfg, Dependencies{
		Students: students,
		Ledger:   ledger,
		Files:    files,
		Pipeline: ingest.New(students, ledger, files, selector),
		Version:  "test",
	})
}

func TestServerRoutes(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/health/detailed", http.StatusOK},
		{http.MethodGet, "/api/v1/students", http.StatusOK},
		{http.MethodGet, "/api/v1/attendance/day/2025-09-01", http.StatusOK},
		{http.MethodGet, "/api/v1/attendance/range?start=2025-09-01&end=2025-09-02", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/uploads/faces/missing.jpg", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/migrate/clear", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/migrate/clear", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		recorder := httptest.NewRecorder()
		server.Router().ServeHTTP(recorder, req)
		if recorder.Code != tt.status {
			t.Errorf("%s %s: status = %d, want %d\nBody: %s",
				tt.method, tt.path, recorder.Code, tt.status, recorder.Body.String())
		}
	}
}

func TestServerPreflight(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/students", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}
