package pipeline

import (
	"errors"
	"fmt"
)

// RunError represents an error detected during a pipeline run.
//
// Run errors include:
//   - Ingest failed: a required source could not be read
//   - Merge failed: contacts or entities were empty after cleaning
//   - Materialization failed: the flattened set could not be rebuilt
//   - Run locked: another pipeline run holds the storage lock
//
// RunError includes structured fields for diagnostics and recovery.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Stage names the pipeline stage that failed.
	Stage string

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeIngestFailed indicates a required source could not be read.
	ErrCodeIngestFailed RunErrorCode = "INGEST_FAILED"

	// ErrCodeMergeFailed indicates flattening preconditions were not met.
	ErrCodeMergeFailed RunErrorCode = "MERGE_FAILED"

	// ErrCodeMaterializeFailed indicates the rebuild or swap failed.
	ErrCodeMaterializeFailed RunErrorCode = "MATERIALIZE_FAILED"

	// ErrCodeRunLocked indicates another run holds the pipeline lock.
	ErrCodeRunLocked RunErrorCode = "RUN_LOCKED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s (run=%s, stage=%s)", e.Code, e.Message, e.RunID, e.Stage)
	}
	return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRunLocked returns true if the error means another run holds the lock.
// Uses errors.As to handle wrapped errors.
func IsRunLocked(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRunLocked
	}
	return false
}

// IsMergeFailed returns true if the error is a flattening-precondition
// failure (no contacts or no entities after cleaning).
func IsMergeFailed(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMergeFailed
	}
	return false
}

func newRunError(code RunErrorCode, runID, stage string, err error) *RunError {
	return &RunError{
		Code:    code,
		Message: err.Error(),
		RunID:   runID,
		Stage:   stage,
		Err:     err,
	}
}
