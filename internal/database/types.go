package database

import (
	"time"
)

// DayFormat is the wire format for calendar days (date only, no time).
const DayFormat = "2006-01-02"

// Student is a registered identity eligible for attendance tracking.
type Student struct {
	ID            int64
	StudentID     string // unique external identifier
	Name          string
	Email         string
	ClassSection  string
	FaceImagePath string // file store path of the registered face, empty if none
	CreatedAt     time.Time
}

// AttendanceEvent is one recorded presence of a student on one calendar
// day. At most one event may exist per (student, day); the persistence
// layer's uniqueness constraint is the authority for that invariant.
type AttendanceEvent struct {
	ID           string // uuid
	StudentID    string
	Day          time.Time // date only, normalized to midnight UTC
	CheckInTime  time.Time
	EvidencePath string   // file store path of the capture, empty if none
	Confidence   *float64 // match confidence, nil for manual/imported rows
	CreatedAt    time.Time
}

// RecordResult is the outcome of an insert-if-absent ledger write. When
// Created is false, Event is the pre-existing row, untouched.
type RecordResult struct {
	Created bool
	Event   AttendanceEvent
}

// Day normalizes a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a date-only string ("2006-01-02").
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}
