package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Print attendance for a day",
	Long: `Print all attendance events recorded on a calendar day.
Defaults to today when no date is given.

Example:
  face-attendance report 2025-09-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	day := database.Day(time.Now().UTC())
	if len(args) == 1 {
		parsed, err := database.ParseDay(args[0])
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}

	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	ledger := postgres.NewAttendanceRepository(pool)
	events, err := ledger.FindByDateRange(context.Background(), "", day, day)
	if err != nil {
		return fmt.Errorf("loading attendance: %w", err)
	}

	fmt.Printf("Attendance for %s: %d student(s)\n", day.Format(database.DayFormat), len(events))
	for _, e := range events {
		confidence := "-"
		if e.Confidence != nil {
			confidence = fmt.Sprintf("%.3f", *e.Confidence)
		}
		fmt.Printf("  %-12s %s  confidence %s\n",
			e.StudentID, e.CheckInTime.UTC().Format("15:04:05"), confidence)
	}
	return nil
}
