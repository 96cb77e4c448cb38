package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mkrejcir/face-attendance/internal/database"
)

// foreignKeyViolation is the PostgreSQL error code for FK violations,
// raised when recording attendance for an unregistered student.
const foreignKeyViolation = "23503"

// AttendanceRepository provides the PostgreSQL-backed attendance ledger.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance ledger.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const eventColumns = `id, student_id, attendance_date, check_in_time, COALESCE(evidence_path, ''), confidence, created_at`

// RecordIfAbsent inserts an attendance event unless one exists for the
// (student, day) pair. The unique constraint is the authority: ON CONFLICT
// DO NOTHING returns no row when another writer won, and the existing row
// is read back as the Created=false result. Concurrent callers therefore
// observe exactly one Created=true.
func (r *AttendanceRepository) RecordIfAbsent(ctx context.Context, event database.AttendanceEvent) (database.RecordResult, error) {
	if event.StudentID == "" {
		return database.RecordResult{}, &database.ValidationError{Field: "student_id", Reason: "must not be empty"}
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CheckInTime.IsZero() {
		event.CheckInTime = time.Now().UTC()
	}
	event.Day = database.Day(event.Day)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO attendance_events (id, student_id, attendance_date, check_in_time, evidence_path, confidence)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (student_id, attendance_date) DO NOTHING
		RETURNING `+eventColumns+`
	`, event.ID, event.StudentID, event.Day, event.CheckInTime, event.EvidencePath, event.Confidence)

	inserted, err := scanEvent(row)
	if err == nil {
		return database.RecordResult{Created: true, Event: inserted}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return database.RecordResult{}, &database.NotFoundError{Entity: "student", Ref: event.StudentID}
		}
		return database.RecordResult{}, fmt.Errorf("insert attendance event: %w", err)
	}

	// Conflict: some insert for this (student, day) already committed.
	existing, err := r.FindByStudentAndDay(ctx, event.StudentID, event.Day)
	if err != nil {
		return database.RecordResult{}, fmt.Errorf("read existing attendance event: %w", err)
	}
	return database.RecordResult{Created: false, Event: existing}, nil
}

// CountForDay returns the number of events recorded on a day.
func (r *AttendanceRepository) CountForDay(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM attendance_events WHERE attendance_date = $1",
		database.Day(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance events: %w", err)
	}
	return count, nil
}

// FindByStudentAndDay returns the event for (studentID, day).
func (r *AttendanceRepository) FindByStudentAndDay(ctx context.Context, studentID string, day time.Time) (database.AttendanceEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE student_id = $1 AND attendance_date = $2
	`, studentID, database.Day(day))

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return database.AttendanceEvent{}, &database.NotFoundError{
			Entity: "attendance event",
			Ref:    fmt.Sprintf("%s@%s", studentID, database.Day(day).Format(database.DayFormat)),
		}
	}
	if err != nil {
		return database.AttendanceEvent{}, fmt.Errorf("query attendance event: %w", err)
	}
	return event, nil
}

// FindByDateRange returns events with start <= day <= end, newest day
// first. An empty studentID matches all students.
func (r *AttendanceRepository) FindByDateRange(ctx context.Context, studentID string, start, end time.Time) ([]database.AttendanceEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE attendance_date BETWEEN $1 AND $2
	`
	args := []any{database.Day(start), database.Day(end)}
	if studentID != "" {
		query += " AND student_id = $3"
		args = append(args, studentID)
	}
	query += " ORDER BY attendance_date DESC, check_in_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	var events []database.AttendanceEvent
	for rows.Next() {
		event, err := scanEventRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance events: %w", err)
	}
	return events, nil
}

// Purge deletes all attendance events.
func (r *AttendanceRepository) Purge(ctx context.Context) (int, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance_events")
	if err != nil {
		return 0, fmt.Errorf("purge attendance events: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge attendance events: %w", err)
	}
	return int(affected), nil
}

func scanEvent(row *sql.Row) (database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	err := row.Scan(&e.ID, &e.StudentID, &e.Day, &e.CheckInTime, &e.EvidencePath, &e.Confidence, &e.CreatedAt)
	if err != nil {
		return database.AttendanceEvent{}, err
	}
	e.Day = database.Day(e.Day)
	return e, nil
}

func scanEventRows(rows *sql.Rows) (database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	err := rows.Scan(&e.ID, &e.StudentID, &e.Day, &e.CheckInTime, &e.EvidencePath, &e.Confidence, &e.CreatedAt)
	if err != nil {
		return database.AttendanceEvent{}, err
	}
	e.Day = database.Day(e.Day)
	return e, nil
}
