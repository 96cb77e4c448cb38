// Package importer loads historical attendance records from CSV exports
// of legacy systems into the ledger.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mkrejcir/face-attendance/internal/database"
)

// expected CSV header, also accepted case-insensitively as the first row:
// studentId,attendanceDate,checkInTime,photoPath,confidence
const columns = 5

// ProgressInfo is passed to the optional progress callback once per row.
type ProgressInfo struct {
	Line     int
	Imported int
	Skipped  int
}

// Options configures an import run.
type Options struct {
	DryRun     bool
	OnProgress func(ProgressInfo)
}

// Result summarizes an import run. Rows are never fatal: a malformed or
// conflicting row is counted and the run continues.
type Result struct {
	Imported  int // new ledger entries created
	Skipped   int // duplicates and rows for unregistered students
	Malformed int // rows that could not be parsed
	Errors    []error
}

// Importer replays CSV attendance rows through the ledger, so imported
// rows obey the same one-per-student-per-day rule as live captures.
type Importer struct {
	ledger database.AttendanceLedger
}

func New(ledger database.AttendanceLedger) *Importer {
	return &Importer{ledger: ledger}
}

// Run reads CSV rows from r and records each through the ledger.
// Blank lines and lines starting with '#' are ignored.
func (imp *Importer) Run(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per row so a bad row cannot abort the run
	reader.Comment = '#'

	var result Result
	sawRecord := false
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Malformed++
			result.Errors = append(result.Errors, fmt.Errorf("line %d: %w", errorLine(err), err))
			continue
		}
		// FieldPos reports the position in the input, so comment and blank
		// lines the reader swallowed still count.
		line, _ := reader.FieldPos(0)
		if !sawRecord {
			sawRecord = true
			if isHeader(record) {
				continue
			}
		}

		event, err := parseRow(record)
		if err != nil {
			result.Malformed++
			result.Errors = append(result.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		if opts.DryRun {
			result.Imported++
		} else {
			created, err := imp.record(ctx, event)
			switch {
			case err != nil:
				var notFound *database.NotFoundError
				if errors.As(err, &notFound) {
					result.Skipped++
					result.Errors = append(result.Errors, fmt.Errorf("line %d: %w", line, err))
					break
				}
				return result, fmt.Errorf("line %d: %w", line, err)
			case created:
				result.Imported++
			default:
				result.Skipped++
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(ProgressInfo{Line: line, Imported: result.Imported, Skipped: result.Skipped})
		}
	}

	log.Printf("import finished: %d imported, %d skipped, %d malformed", result.Imported, result.Skipped, result.Malformed)
	return result, nil
}

func (imp *Importer) record(ctx context.Context, event database.AttendanceEvent) (bool, error) {
	res, err := imp.ledger.RecordIfAbsent(ctx, event)
	if err != nil {
		return false, err
	}
	return res.Created, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "studentId")
}

// errorLine extracts the input line from a csv read error.
func errorLine(err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line
	}
	return 0
}

// parseRow converts one CSV row to an attendance event.
func parseRow(record []string) (database.AttendanceEvent, error) {
	if len(record) > columns {
		return database.AttendanceEvent{}, fmt.Errorf("expected at most %d columns, got %d", columns, len(record))
	}
	for len(record) < columns {
		record = append(record, "")
	}
	return ParseRecord(record[0], record[1], record[2], record[3], record[4])
}

// ParseRecord converts raw legacy field values to an attendance event.
// Only the student and the date are required; check-in time, photo path,
// and confidence are optional legacy fields.
func ParseRecord(studentID, attendanceDate, checkInTime, photoPath, confidence string) (database.AttendanceEvent, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return database.AttendanceEvent{}, errors.New("missing student id")
	}

	day, err := database.ParseDay(strings.TrimSpace(attendanceDate))
	if err != nil {
		return database.AttendanceEvent{}, fmt.Errorf("attendance date: %w", err)
	}

	event := database.AttendanceEvent{
		StudentID:    studentID,
		Day:          day,
		CheckInTime:  day,
		EvidencePath: strings.TrimSpace(photoPath),
	}

	if raw := strings.TrimSpace(checkInTime); raw != "" {
		checkIn, err := parseCheckIn(day, raw)
		if err != nil {
			return database.AttendanceEvent{}, fmt.Errorf("check-in time: %w", err)
		}
		event.CheckInTime = checkIn
	}

	if raw := strings.TrimSpace(confidence); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 || value > 1 {
			return database.AttendanceEvent{}, fmt.Errorf("confidence %q out of range", raw)
		}
		event.Confidence = &value
	}

	return event, nil
}

// parseCheckIn accepts either a bare clock time on the attendance day or
// a full RFC 3339 timestamp.
func parseCheckIn(day time.Time, raw string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized format %q", raw)
}
