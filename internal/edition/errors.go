package edition

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("concurrent state change")
	ErrForbidden = errors.New("forbidden")
)

// GuardViolation is returned when one or more preconditions of a transition
// fail. It never accompanies a mutation.
type GuardViolation struct {
	Verb    string
	Reasons []string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Verb, strings.Join(e.Reasons, "; "))
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConcurrentStateChange means someone else transitioned the edition between
// our read and our write. Callers should re-fetch before retrying.
type ConcurrentStateChange struct {
	EditionID string
}

func (e *ConcurrentStateChange) Error() string {
	return fmt.Sprintf("edition %s was changed by someone else", e.EditionID)
}

func (e *ConcurrentStateChange) Is(target error) bool { return target == ErrConflict }

// ForbiddenError is returned when the actor lacks a capability.
type ForbiddenError struct {
	Capability string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("missing capability %q", e.Capability)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// CollaboratorFailure records a side effect that failed after commit. It is
// reported as a warning on an otherwise successful result.
type CollaboratorFailure struct {
	Collaborator string
	Operation    string
	DocumentID   string
	Err          error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("%s %s for document %s: %v", e.Collaborator, e.Operation, e.DocumentID, e.Err)
}

func (e *CollaboratorFailure) Unwrap() error { return e.Err }

// AsGuardViolation is a convenience around errors.As.
func AsGuardViolation(err error) (*GuardViolation, bool) {
	var gv *GuardViolation
	if errors.As(err, &gv) {
		return gv, true
	}
	return nil, false
}
