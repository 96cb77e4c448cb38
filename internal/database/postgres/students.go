package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mkrejcir/face-attendance/internal/database"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// StudentRepository provides PostgreSQL-backed student storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s database.Student) (database.Student, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO students (student_id, name, email, class_section, face_image_path)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id, created_at
	`, s.StudentID, s.Name, s.Email, s.ClassSection, s.FaceImagePath)

	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return database.Student{}, &database.AlreadyExistsError{Entity: "student", Ref: s.StudentID}
		}
		return database.Student{}, fmt.Errorf("insert student: %w", err)
	}
	return s, nil
}

// GetByStudentID returns a student by external identifier.
func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (database.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, student_id, name, COALESCE(email, ''), COALESCE(class_section, ''),
		       COALESCE(face_image_path, ''), created_at
		FROM students WHERE student_id = $1
	`, studentID)

	var s database.Student
	err := row.Scan(&s.ID, &s.StudentID, &s.Name, &s.Email, &s.ClassSection, &s.FaceImagePath, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return database.Student{}, &database.NotFoundError{Entity: "student", Ref: studentID}
	}
	if err != nil {
		return database.Student{}, fmt.Errorf("query student: %w", err)
	}
	return s, nil
}

// List returns all students in registration order. The serial primary key
// preserves insertion order, which the match selector's tie-break relies on.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, name, COALESCE(email, ''), COALESCE(class_section, ''),
		       COALESCE(face_image_path, ''), created_at
		FROM students
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.StudentID, &s.Name, &s.Email, &s.ClassSection, &s.FaceImagePath, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// Delete removes a student and their attendance events. The cascade is an
// explicit two-step delete inside one transaction so ordering and partial
// failure stay visible.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_events WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete attendance events: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected == 0 {
		return &database.NotFoundError{Entity: "student", Ref: studentID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student delete: %w", err)
	}
	return nil
}

// Count returns the number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
