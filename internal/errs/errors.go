// Package errs defines the error taxonomy shared by the loader components.
//
// Every failure mode that callers are expected to branch on is a typed error
// here; everything else is wrapped with fmt.Errorf("...: %w", err) at the
// point where context is known. Use errors.As (or the Is* helpers) to match;
// the concrete types carry the fields needed for diagnostics.
package errs

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing input path.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input %s not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("input %s not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// AlreadyExistsError reports that the destination (database file or primary
// table) is already present. The loader never overwrites implicitly.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("destination %s already exists", e.Path)
}

// InvalidArgumentError reports a rejected invocation parameter.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// MalformedRecordError reports an input line that could not be turned into a
// loadable record: unparsable JSON, or a record missing its identifier.
// Line is 1-based; it is zero when the failing record's position is unknown
// (e.g. when raised by the mapper on an already-parsed record).
type MalformedRecordError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s", e.Line, msg)
	}
	return fmt.Sprintf("malformed record: %s", msg)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// WriteError wraps a destination store failure. Chunk is the 1-based index of
// the chunk whose commit failed; the destination is guaranteed to contain no
// rows from that chunk.
type WriteError struct {
	Chunk int
	Err   error
}

func (e *WriteError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("write chunk %d: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("write: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

// IsAlreadyExists reports whether err is (or wraps) an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var t *AlreadyExistsError
	return errors.As(err, &t)
}

// IsInvalidArgument reports whether err is (or wraps) an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var t *InvalidArgumentError
	return errors.As(err, &t)
}

// IsMalformedRecord reports whether err is (or wraps) a MalformedRecordError.
func IsMalformedRecord(err error) bool {
	var t *MalformedRecordError
	return errors.As(err, &t)
}

// IsWrite reports whether err is (or wraps) a WriteError.
func IsWrite(err error) bool {
	var t *WriteError
	return errors.As(err, &t)
}
