// Package apperrors defines the domain error taxonomy shared by the service layer and the
// HTTP handlers. Every failure the namespace service reports to a caller is either a
// *DomainError of one of the kinds below, or a wrapped infrastructure error.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError
type Kind string

const (
	// KindInvalidArgument marks a missing or malformed identifying field
	KindInvalidArgument Kind = "invalid argument"
	// KindNotFound marks a lookup or update target that does not exist among live rows
	KindNotFound Kind = "not found"
	// KindConflict marks a uniqueness violation on create
	KindConflict Kind = "conflict"
	// KindAtomicityFailure marks a transactional sequence that failed and was rolled back
	KindAtomicityFailure Kind = "atomicity failure"
)

// DomainError is a classified failure for a given entity
type DomainError struct {
	Kind    Kind
	Entity  string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for entity %s: %s: %v", e.Kind, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s for entity %s: %s", e.Kind, e.Entity, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// InvalidArgument creates a KindInvalidArgument error
func InvalidArgument(entity, msg string) *DomainError {
	return &DomainError{Kind: KindInvalidArgument, Entity: entity, Message: msg}
}

// NotFound creates a KindNotFound error
func NotFound(entity, msg string) *DomainError {
	return &DomainError{Kind: KindNotFound, Entity: entity, Message: msg}
}

// Conflict creates a KindConflict error
func Conflict(entity, msg string) *DomainError {
	return &DomainError{Kind: KindConflict, Entity: entity, Message: msg}
}

// AtomicityFailure wraps err as a KindAtomicityFailure error
func AtomicityFailure(entity, msg string, err error) *DomainError {
	return &DomainError{Kind: KindAtomicityFailure, Entity: entity, Message: msg, Err: err}
}

// KindOf returns the kind of the first DomainError in err's chain, or "" if none
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsDomain reports whether err carries a DomainError
func IsDomain(err error) bool {
	return KindOf(err) != ""
}

func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsConflict(err error) bool { return KindOf(err) == KindConflict }

func IsAtomicityFailure(err error) bool { return KindOf(err) == KindAtomicityFailure }
