package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for the boundary layer.
type ErrorKind string

const (
	// KindNotFound means the remote object is absent.
	KindNotFound ErrorKind = "not_found"
	// KindConflict means a version token mismatch on write or delete, or a
	// duplicate ref on create.
	KindConflict ErrorKind = "conflict"
	// KindRemoteUnavailable covers network failures, 5xx, and anything else
	// the remote side rejected unexpectedly.
	KindRemoteUnavailable ErrorKind = "remote_unavailable"
	// KindValidation means malformed caller input; no network call was made.
	KindValidation ErrorKind = "validation"
)

// Error carries enough context (operation, path, branch) to render a
// user-facing message at the boundary.
type Error struct {
	Kind   ErrorKind
	Op     string
	Path   string
	Branch string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		s += " path=" + e.Path
	}
	if e.Branch != "" {
		s += " branch=" + e.Branch
	}
	if e.Status != 0 {
		s += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the taxonomy kind from err, defaulting to
// KindRemoteUnavailable for anything unclassified.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindRemoteUnavailable
}

// IsNotFound reports whether err is a KindNotFound domain error.
func IsNotFound(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindNotFound
}

// IsConflict reports whether err is a KindConflict domain error.
func IsConflict(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindConflict
}

// Validationf builds a KindValidation error for malformed caller input.
func Validationf(op string, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}
