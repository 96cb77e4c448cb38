package database

import (
	"context"
	"time"
)

// StudentStore manages registered identities.
type StudentStore interface {
	// Create inserts a new student. Fails with AlreadyExistsError when the
	// external student identifier is taken.
	Create(ctx context.Context, s Student) (Student, error)
	// GetByStudentID returns a student by external identifier, or
	// NotFoundError.
	GetByStudentID(ctx context.Context, studentID string) (Student, error)
	// List returns all students in registration order. This is the match
	// registry order, so it must be stable.
	List(ctx context.Context) ([]Student, error)
	// Delete removes a student and all of their attendance events as an
	// explicit two-step cascade (events first, then the student) inside
	// one transaction.
	Delete(ctx context.Context, studentID string) error
	// Count returns the number of registered students.
	Count(ctx context.Context) (int, error)
}

// AttendanceLedger enforces the one-event-per-(student, day) invariant.
type AttendanceLedger interface {
	// RecordIfAbsent inserts an attendance event unless one already exists
	// for (event.StudentID, event.Day). The check-then-insert race is
	// settled by the storage layer's uniqueness constraint: a losing
	// insert is reinterpreted as Created=false by re-reading the winning
	// row, never surfaced as an error.
	RecordIfAbsent(ctx context.Context, event AttendanceEvent) (RecordResult, error)
	// CountForDay returns the number of events recorded on a day.
	CountForDay(ctx context.Context, day time.Time) (int, error)
	// FindByStudentAndDay returns the event for (studentID, day), or
	// NotFoundError.
	FindByStudentAndDay(ctx context.Context, studentID string, day time.Time) (AttendanceEvent, error)
	// FindByDateRange returns events with start <= day <= end, newest day
	// first. An empty studentID matches all students.
	FindByDateRange(ctx context.Context, studentID string, start, end time.Time) ([]AttendanceEvent, error)
	// Purge deletes all attendance events and returns how many were
	// removed. Administrative resets only.
	Purge(ctx context.Context) (int, error)
}
