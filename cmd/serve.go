package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database/postgres"
	"github.com/mkrejcir/face-attendance/internal/facematch"
	"github.com/mkrejcir/face-attendance/internal/filestore"
	"github.com/mkrejcir/face-attendance/internal/ingest"
	"github.com/mkrejcir/face-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Face Attendance HTTP server.
The server exposes student registration, capture ingestion, attendance
queries, and legacy data migration under /api/v1.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides HTTP_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides HTTP_HOST)")
}

// newComparator picks the face comparator implementation from config.
func newComparator(cfg *config.Config, files *filestore.Store) (facematch.Comparator, error) {
	switch cfg.Matching.Comparator {
	case "phash":
		return facematch.NewPerceptualComparator(files), nil
	case "embedding":
		// The embedding comparator exists but no deployment provides a
		// vector source for it yet. Fail at startup rather than silently
		// matching with a different algorithm.
		return nil, fmt.Errorf("comparator %q requires a face embedding source, none is configured", cfg.Matching.Comparator)
	case "", "sizeratio":
		return facematch.NewSizeRatioComparator(files), nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", cfg.Matching.Comparator)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	files, err := filestore.New(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("initializing file store: %w", err)
	}

	students := postgres.NewStudentRepository(pool)
	ledger := postgres.NewAttendanceRepository(pool)
	comparator, err := newComparator(cfg, files)
	if err != nil {
		return err
	}
	selector := facematch.NewSelector(comparator, cfg.Matching.Threshold)
	pipeline := ingest.New(students, ledger, files, selector,
		ingest.WithKeepDuplicateEvidence(cfg.Attendance.KeepDuplicateEvidence))

	server := web.NewServer(cfg, web.Dependencies{
		Students: students,
		Ledger:   ledger,
		Files:    files,
		Pipeline: pipeline,
		DB:       pool,
		Version:  Version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance API on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
