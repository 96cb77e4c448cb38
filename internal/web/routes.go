package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/mkrejcir/face-attendance/internal/web/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	comparator := s.config.Matching.Comparator
	if comparator == "" {
		comparator = "sizeratio"
	}

	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Students, s.deps.Ledger, s.config.Storage.Root, s.deps.Version, comparator)
	studentsHandler := handlers.NewStudentsHandler(s.deps.Students, s.deps.Files, s.config.Storage.MaxImageDim)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Pipeline, s.deps.Ledger)
	migrateHandler := handlers.NewMigrateHandler(s.deps.Ledger)
	filesHandler := handlers.NewFilesHandler(s.deps.Files)

	// Health checks
	s.router.Get("/api/v1/health", healthHandler.Check)
	s.router.Get("/api/v1/health/detailed", healthHandler.Detailed)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Students
		r.Post("/students", studentsHandler.Register)
		r.Get("/students", studentsHandler.List)
		r.Get("/students/{studentId}", studentsHandler.Get)
		r.Delete("/students/{studentId}", studentsHandler.Delete)

		// Attendance
		r.Post("/attendance", attendanceHandler.Capture)
		r.Get("/attendance/day/{date}", attendanceHandler.Day)
		r.Get("/attendance/range", attendanceHandler.Range)

		// Legacy data migration
		r.Post("/migrate/attendance", migrateHandler.ImportRecord)
		r.Post("/migrate/attendance/csv", migrateHandler.ImportCSV)
		r.Delete("/migrate/clear", migrateHandler.Clear)
	})

	// Stored face and evidence images
	s.router.Get("/uploads/*", filesHandler.Serve)

	// Prometheus metrics
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
}
