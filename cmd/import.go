package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database/postgres"
	"github.com/mkrejcir/face-attendance/internal/importer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import attendance records from a legacy CSV export",
	Long: `Import attendance records from a CSV export of a legacy system.

Expected columns: studentId,attendanceDate,checkInTime,photoPath,confidence
Lines starting with # and blank lines are ignored. Rows that already
exist or cannot be parsed are skipped and reported at the end.

Example:
  face-attendance import legacy-attendance.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("dry-run", false, "Parse and count rows without writing anything")
	importCmd.Flags().Bool("verbose", false, "Print every skipped or malformed row")
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")
	verbose := mustGetBool(cmd, "verbose")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading csv file: %w", err)
	}

	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	ledger := postgres.NewAttendanceRepository(pool)

	bar := progressbar.NewOptions(bytes.Count(data, []byte("\n"))+1,
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	result, err := importer.New(ledger).Run(context.Background(), bytes.NewReader(data), importer.Options{
		DryRun: dryRun,
		OnProgress: func(importer.ProgressInfo) {
			_ = bar.Add(1)
		},
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if dryRun {
		fmt.Println("Dry run, nothing was written.")
	}
	fmt.Printf("Imported:  %d\n", result.Imported)
	fmt.Printf("Skipped:   %d\n", result.Skipped)
	fmt.Printf("Malformed: %d\n", result.Malformed)

	if verbose {
		for _, rowErr := range result.Errors {
			fmt.Printf("  %v\n", rowErr)
		}
	} else if len(result.Errors) > 0 {
		fmt.Printf("Run with --verbose to see %d row error(s).\n", len(result.Errors))
	}
	return nil
}
