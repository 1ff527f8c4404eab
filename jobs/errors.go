package jobs

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned by the Store when no job row exists for an id.
var ErrJobNotFound = errors.New("job not found")

// ValidationError is a bad or missing owning reference at job-creation time.
// It is surfaced synchronously to the caller; the job is never persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialItemError is a single item's variation failure inside a sync
// batch. It is logged at the call site and never terminal for the job.
type PartialItemError struct {
	ExternalID int64
	Err        error
}

func (e *PartialItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ExternalID, e.Err)
}

func (e *PartialItemError) Unwrap() error {
	return e.Err
}

// AdapterError is a failure reported by an external collaborator during a
// job run. It is recorded as the job's terminal failure and never escapes
// the orchestrator.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
