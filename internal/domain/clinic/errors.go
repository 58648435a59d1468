package clinic

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrReferentialIntegrity is matched by every ReferentialIntegrityError.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	// ErrConstraintViolation is matched by every ConstraintViolationError.
	ErrConstraintViolation = errors.New("constraint violation")
)

// NotFoundError reports a point lookup that matched no row.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferentialIntegrityError reports a foreign key that could not be resolved
// while rebuilding an aggregate. It indicates a corrupt or concurrently
// mutated store and is never retried.
type ReferentialIntegrityError struct {
	Entity string
	ID     int
	Ref    string
	RefID  int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %d references missing %s %d", e.Entity, e.ID, e.Ref, e.RefID)
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }

// ConstraintViolationError reports a write rejected by a store constraint or
// by a mandatory-field check made before the store was touched.
type ConstraintViolationError struct {
	Entity string
	Reason string
	Err    error
}

func (e *ConstraintViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Entity, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// NotFound builds the error a repository returns for a missing row.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}
