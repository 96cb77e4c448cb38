// Package mock provides in-memory implementations of the database
// interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkrejcir/face-attendance/internal/database"
)

// StudentStore is an in-memory implementation of database.StudentStore.
type StudentStore struct {
	mu       sync.RWMutex
	students []database.Student
	nextID   int64

	// Error injection
	CreateError error
	GetError    error
	ListError   error
	DeleteError error
	CountError  error
}

// NewStudentStore creates an empty in-memory student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{nextID: 1}
}

// Create inserts a new student.
func (m *StudentStore) Create(ctx context.Context, s database.Student) (database.Student, error) {
	if m.CreateError != nil {
		return database.Student{}, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.students {
		if existing.StudentID == s.StudentID {
			return database.Student{}, &database.AlreadyExistsError{Entity: "student", Ref: s.StudentID}
		}
	}
	s.ID = m.nextID
	m.nextID++
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.students = append(m.students, s)
	return s, nil
}

// GetByStudentID returns a student by external identifier.
func (m *StudentStore) GetByStudentID(ctx context.Context, studentID string) (database.Student, error) {
	if m.GetError != nil {
		return database.Student{}, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.StudentID == studentID {
			return s, nil
		}
	}
	return database.Student{}, &database.NotFoundError{Entity: "student", Ref: studentID}
}

// List returns students in registration order.
func (m *StudentStore) List(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Student, len(m.students))
	copy(out, m.students)
	return out, nil
}

// Delete removes a student.
func (m *StudentStore) Delete(ctx context.Context, studentID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.students {
		if s.StudentID == studentID {
			m.students = append(m.students[:i], m.students[i+1:]...)
			return nil
		}
	}
	return &database.NotFoundError{Entity: "student", Ref: studentID}
}

// Count returns the number of students.
func (m *StudentStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Ledger is an in-memory implementation of database.AttendanceLedger. The
// key map acts as the uniqueness constraint: RecordIfAbsent holds the lock
// across check and insert, so concurrent callers observe exactly one
// Created=true per (student, day).
type Ledger struct {
	mu     sync.Mutex
	events map[string]database.AttendanceEvent

	// Error injection
	RecordError error
	ReadError   error
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{events: make(map[string]database.AttendanceEvent)}
}

func key(studentID string, day time.Time) string {
	return studentID + "|" + database.Day(day).Format(database.DayFormat)
}

// RecordIfAbsent inserts an event unless the (student, day) key is taken.
func (m *Ledger) RecordIfAbsent(ctx context.Context, event database.AttendanceEvent) (database.RecordResult, error) {
	if m.RecordError != nil {
		return database.RecordResult{}, m.RecordError
	}
	if event.StudentID == "" {
		return database.RecordResult{}, &database.ValidationError{Field: "student_id", Reason: "must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(event.StudentID, event.Day)
	if existing, ok := m.events[k]; ok {
		return database.RecordResult{Created: false, Event: existing}, nil
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CheckInTime.IsZero() {
		event.CheckInTime = time.Now().UTC()
	}
	event.Day = database.Day(event.Day)
	event.CreatedAt = time.Now().UTC()
	m.events[k] = event
	return database.RecordResult{Created: true, Event: event}, nil
}

// CountForDay returns the number of events on a day.
func (m *Ledger) CountForDay(ctx context.Context, day time.Time) (int, error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d := database.Day(day)
	count := 0
	for _, e := range m.events {
		if e.Day.Equal(d) {
			count++
		}
	}
	return count, nil
}

// FindByStudentAndDay returns the event for (studentID, day).
func (m *Ledger) FindByStudentAndDay(ctx context.Context, studentID string, day time.Time) (database.AttendanceEvent, error) {
	if m.ReadError != nil {
		return database.AttendanceEvent{}, m.ReadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[key(studentID, day)]; ok {
		return e, nil
	}
	return database.AttendanceEvent{}, &database.NotFoundError{Entity: "attendance event", Ref: key(studentID, day)}
}

// FindByDateRange returns events within [start, end], newest day first.
func (m *Ledger) FindByDateRange(ctx context.Context, studentID string, start, end time.Time) ([]database.AttendanceEvent, error) {
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, e := database.Day(start), database.Day(end)
	var out []database.AttendanceEvent
	for _, event := range m.events {
		if event.Day.Before(s) || event.Day.After(e) {
			continue
		}
		if studentID != "" && event.StudentID != studentID {
			continue
		}
		out = append(out, event)
	}
	// Newest day first, stable enough for tests.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Day.After(out[i].Day) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

// Purge deletes all events.
func (m *Ledger) Purge(ctx context.Context) (int, error) {
	if m.RecordError != nil {
		return 0, m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.events)
	m.events = make(map[string]database.AttendanceEvent)
	return n, nil
}
