package people

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrTagNotFound     = errors.New("tag not found")
)

// PersistenceError is returned when the store fails to create, save or delete a record,
// whether because of I/O or because the record failed validation. Callers in the
// interactive surfaces log it and carry on; in-memory edits are never rolled back.
type PersistenceError struct {
	Op   string
	Kind string
	ID   uuid.UUID
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("failed to %s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op, kind string, id uuid.UUID, err error) error {
	return &PersistenceError{Op: op, Kind: kind, ID: id, Err: err}
}
