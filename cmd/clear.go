package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all attendance records",
	Long: `Delete every attendance event from the ledger.

Registered students and their face images are kept. Stored evidence
files are kept as well; only the database records are removed.

Example:
  face-attendance clear --yes`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func runClear(cmd *cobra.Command, args []string) error {
	skipConfirm := mustGetBool(cmd, "yes")

	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	ledger := postgres.NewAttendanceRepository(pool)

	ctx := context.Background()
	if !skipConfirm && !confirmAction("\nDelete ALL attendance records? [y/N]: ") {
		fmt.Println("Cancelled.")
		return nil
	}

	purged, err := ledger.Purge(ctx)
	if err != nil {
		return fmt.Errorf("clearing attendance: %w", err)
	}

	fmt.Printf("Done! Deleted %d attendance record(s)\n", purged)
	return nil
}
