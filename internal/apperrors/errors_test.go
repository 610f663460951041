package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorString(t *testing.T) {
	err := Conflict("Namespace", "pay/default/db-config already exists")
	want := "conflict for entity Namespace: pay/default/db-config already exists"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDomainError_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := AtomicityFailure("Namespace", "delete rolled back", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !IsAtomicityFailure(err) {
		t.Error("IsAtomicityFailure should be true")
	}
}

func TestKindOf_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("Namespace", "missing"))
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindNotFound)
	}
	if !IsNotFound(err) || IsConflict(err) || IsInvalidArgument(err) {
		t.Error("kind predicates disagree with KindOf")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if IsDomain(errors.New("boom")) {
		t.Error("plain errors are not domain errors")
	}
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
}
