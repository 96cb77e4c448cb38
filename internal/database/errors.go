package database

import "fmt"

// ValidationError rejects malformed input before it touches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// AlreadyExistsError indicates a uniqueness conflict on creation, e.g. a
// duplicate student identifier. Duplicate attendance days are NOT an error:
// the ledger reports those as RecordResult.Created == false.
type AlreadyExistsError struct {
	Entity string
	Ref    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.Ref)
}
