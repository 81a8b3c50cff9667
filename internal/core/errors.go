package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record or version listing does not exist.
var ErrNotFound = errors.New("not found")

// NotFoundError wraps ErrNotFound with the artifact that was looked up.
type NotFoundError struct {
	Coordinate Coordinate
	Repository string
}

func (e *NotFoundError) Error() string {
	if e.Repository != "" {
		return fmt.Sprintf("%s: artifact %s not found", e.Repository, e.Coordinate)
	}
	return fmt.Sprintf("artifact %s not found", e.Coordinate)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransportError means a repository could not be asked reliably. It is fatal to a run
// because it cannot be told apart from a record that exists but is unreachable.
type TransportError struct {
	Coordinate Coordinate
	Repository string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: resolving %s: %v", e.Repository, e.Coordinate, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedRecordError is returned when a record payload cannot be parsed.
type MalformedRecordError struct {
	Coordinate Coordinate
	Err        error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed metadata record %s: %v", e.Coordinate, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// InvalidVersionError is returned when a version string cannot be ordered.
type InvalidVersionError struct {
	Version string
	Reason  string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Version, e.Reason)
}

// ConflictingRecordError is returned when generation would overwrite a different record.
type ConflictingRecordError struct {
	Coordinate Coordinate
	Location   string
}

func (e *ConflictingRecordError) Error() string {
	return fmt.Sprintf("metadata record %s already exists at %s with different content", e.Coordinate, e.Location)
}

// HardFailureError lists every hard failure of a completed verification run.
type HardFailureError struct {
	Outcomes []Outcome
}

func (e *HardFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "there were %d dependency metadata failure(s)", len(e.Outcomes))
	for _, o := range e.Outcomes {
		b.WriteString("\n  ")
		b.WriteString(o.String())
	}
	return b.String()
}

// IsFatal reports whether err aborts a run rather than being absorbed into a verdict.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var (
		transport *TransportError
		malformed *MalformedRecordError
		invalid   *InvalidVersionError
		conflict  *ConflictingRecordError
	)
	return errors.As(err, &transport) ||
		errors.As(err, &malformed) ||
		errors.As(err, &invalid) ||
		errors.As(err, &conflict)
}
