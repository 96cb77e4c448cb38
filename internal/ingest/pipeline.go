// Package ingest composes matching, storage, and the attendance ledger
// into the capture ingestion pipeline.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/facematch"
	"github.com/mkrejcir/face-attendance/internal/filestore"
)

// State is the terminal state of an ingestion attempt. An attempt moves
// through received -> matched|rejected -> stored -> recorded|duplicate;
// only the terminal states surface in the Outcome.
type State string

const (
	StateRejected  State = "rejected"  // no registered identity cleared the threshold
	StateRecorded  State = "recorded"  // new attendance event created
	StateDuplicate State = "duplicate" // attendance already recorded for the day
	StateFailed    State = "failed"    // unexpected error at any step
)

// Outcome describes a finished ingestion attempt.
type Outcome struct {
	State        State
	Student      *database.Student
	Confidence   float64
	Event        *database.AttendanceEvent
	EvidencePath string
}

// Files is the slice of the file store the pipeline needs.
type Files interface {
	Save(namespace, prefix, originalName string, data []byte) (string, error)
	Delete(rel string) error
}

// Pipeline runs capture ingestion attempts. Each call is independent: the
// only shared state is the student registry and the ledger, and the
// ledger's uniqueness constraint settles same-day races.
type Pipeline struct {
	students database.StudentStore
	ledger   database.AttendanceLedger
	files    Files
	selector *facematch.Selector

	// keepDuplicateEvidence retains the stored capture when the day turns
	// out to be already recorded. Off by default: the orphan is deleted.
	keepDuplicateEvidence bool

	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithKeepDuplicateEvidence retains evidence files of duplicate captures
// for audit instead of deleting them.
func WithKeepDuplicateEvidence(keep bool) Option {
	return func(p *Pipeline) { p.keepDuplicateEvidence = keep }
}

// WithClock overrides the pipeline's time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates an ingestion pipeline.
func New(students database.StudentStore, ledger database.AttendanceLedger, files Files, selector *facematch.Selector, opts ...Option) *Pipeline {
	p := &Pipeline{
		students: students,
		ledger:   ledger,
		files:    files,
		selector: selector,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs one capture through match, storage, and the ledger. The
// declared capture time `at` defaults to now when zero. A rejected capture
// performs no writes. Once evidence is stored, the ledger write is always
// attempted before any outcome is reported.
func (p *Pipeline) Ingest(ctx context.Context, capture []byte, originalName string, at time.Time) (Outcome, error) {
	if len(capture) == 0 {
		return Outcome{State: StateFailed}, &database.ValidationError{Field: "file", Reason: "capture image must not be empty"}
	}
	if at.IsZero() {
		at = p.now()
	}
	at = at.UTC()

	registry, students, err := p.loadRegistry(ctx)
	if err != nil {
		return Outcome{State: StateFailed}, fmt.Errorf("loading registry: %w", err)
	}

	match := p.selector.Select(ctx, facematch.Representation{Data: capture}, registry)
	if !match.Matched() {
		log.Printf("capture rejected: best confidence %.3f below threshold %.2f", match.Confidence, p.selector.Threshold())
		return Outcome{State: StateRejected, Confidence: match.Confidence}, nil
	}

	student := students[match.StudentID]

	prefix := fmt.Sprintf("attendance_%s_%s", student.StudentID, at.Format("20060102150405"))
	evidencePath, err := p.files.Save(filestore.NamespaceEvidence, prefix, originalName, capture)
	if err != nil {
		return Outcome{State: StateFailed, Student: &student, Confidence: match.Confidence},
			fmt.Errorf("storing evidence: %w", err)
	}

	confidence := match.Confidence
	result, err := p.ledger.RecordIfAbsent(ctx, database.AttendanceEvent{
		StudentID:    student.StudentID,
		Day:          at,
		CheckInTime:  at,
		EvidencePath: evidencePath,
		Confidence:   &confidence,
	})
	if err != nil {
		return Outcome{State: StateFailed, Student: &student, Confidence: match.Confidence, EvidencePath: evidencePath},
			fmt.Errorf("recording attendance: %w", err)
	}

	if !result.Created {
		if !p.keepDuplicateEvidence {
			if err := p.files.Delete(evidencePath); err != nil {
				log.Printf("failed to remove duplicate evidence %s: %v", evidencePath, err)
			}
			evidencePath = ""
		}
		return Outcome{
			State:        StateDuplicate,
			Student:      &student,
			Confidence:   match.Confidence,
			Event:        &result.Event,
			EvidencePath: evidencePath,
		}, nil
	}

	log.Printf("attendance recorded for %s (confidence %.3f)", student.StudentID, match.Confidence)
	return Outcome{
		State:        StateRecorded,
		Student:      &student,
		Confidence:   match.Confidence,
		Event:        &result.Event,
		EvidencePath: evidencePath,
	}, nil
}

// loadRegistry snapshots the registered students that have a stored face.
// The snapshot is taken once per attempt; registrations that land mid-scan
// are picked up by the next attempt.
func (p *Pipeline) loadRegistry(ctx context.Context) ([]facematch.RegistryEntry, map[string]database.Student, error) {
	students, err := p.students.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	registry := make([]facematch.RegistryEntry, 0, len(students))
	byID := make(map[string]database.Student, len(students))
	for _, s := range students {
		byID[s.StudentID] = s
		if s.FaceImagePath == "" {
			continue
		}
		registry = append(registry, facematch.RegistryEntry{
			StudentID: s.StudentID,
			Face:      facematch.Representation{Path: s.FaceImagePath},
		})
	}
	return registry, byID, nil
}
