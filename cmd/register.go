package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkrejcir/face-attendance/internal/config"
	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/database/postgres"
	"github.com/mkrejcir/face-attendance/internal/filestore"
	"github.com/mkrejcir/face-attendance/internal/web/handlers"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <student-id> <name>",
	Short: "Register a student with a reference face image",
	Long: `Register a student so future captures can be matched against them.

The face image is normalized (resized to the configured maximum
dimension and re-encoded) before it is stored.

Example:
  face-attendance register S12345 "Jana Nováková" --face jana.jpg --class 4B`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("face", "", "Path to the reference face image (required)")
	registerCmd.Flags().String("email", "", "Student email address")
	registerCmd.Flags().String("class", "", "Class or section")
	_ = registerCmd.MarkFlagRequired("face")
}

func runRegister(cmd *cobra.Command, args []string) error {
	studentID, name := args[0], args[1]
	if !handlers.ValidStudentID(studentID) {
		return fmt.Errorf("student id %q must not contain path separators", studentID)
	}
	facePath := mustGetString(cmd, "face")

	data, err := os.ReadFile(facePath)
	if err != nil {
		return fmt.Errorf("reading face image: %w", err)
	}

	cfg := config.Load()
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	files, err := filestore.New(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("initializing file store: %w", err)
	}

	normalized, err := filestore.NormalizeImage(data, cfg.Storage.MaxImageDim)
	if err != nil {
		return fmt.Errorf("face image could not be decoded: %w", err)
	}

	storedPath, err := files.Save(filestore.NamespaceFaces, studentID, filepath.Base(facePath), normalized)
	if err != nil {
		return fmt.Errorf("storing face image: %w", err)
	}

	students := postgres.NewStudentRepository(pool)
	student, err := students.Create(context.Background(), database.Student{
		StudentID:     studentID,
		Name:          name,
		Email:         mustGetString(cmd, "email"),
		ClassSection:  mustGetString(cmd, "class"),
		FaceImagePath: storedPath,
	})
	if err != nil {
		if cleanupErr := files.Delete(storedPath); cleanupErr != nil {
			fmt.Printf("Warning: could not remove %s: %v\n", storedPath, cleanupErr)
		}
		return fmt.Errorf("registering student: %w", err)
	}

	fmt.Printf("Registered %s (%s), face stored at %s\n", student.Name, student.StudentID, student.FaceImagePath)
	return nil
}
