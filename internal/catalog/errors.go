package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is. NotFoundError and
// DuplicateError carry the offending kind and name and unwrap to these.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// NotFoundError names the missing artifact.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func newNotFound(kind, name string) error {
	return &NotFoundError{Kind: kind, Name: name}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// DuplicateError names the artifact that was already registered.
type DuplicateError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *DuplicateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %q: %v: %s", e.Kind, e.Name, ErrDuplicate, e.Reason)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, ErrDuplicate)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

func newDuplicate(kind, name, reason string) error {
	return &DuplicateError{Kind: kind, Name: name, Reason: reason}
}

// IsDuplicate reports whether err is (or wraps) a DuplicateError.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }
