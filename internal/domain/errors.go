package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrClaimNotFound     = errors.New("claim not found")
	ErrIssueNotFound     = errors.New("repair issue not found")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrNoActiveWarranty  = errors.New("no active warranty for vehicle")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError is returned for malformed or missing input. The claim is
// never mutated; the caller can fix the field and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError is returned when a state transition is not allowed from
// the claim's current status.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// GuardError is returned when a transition is structurally valid but a
// business guard failed. Guard names the condition that did not hold.
type GuardError struct {
	Guard  string
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("guard %q failed: %s", e.Guard, e.Reason)
}

// PermissionError is returned when the actor's role may not invoke the
// operation.
type PermissionError struct {
	Operation Operation
	Role      Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q may not perform %q", e.Role, e.Operation)
}

// ConflictError is returned when an optimistic-lock check fails: another
// request updated the claim between read and write. Callers should re-read
// and retry.
type ConflictError struct {
	ID      string
	Version int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("claim %s was modified concurrently (version %d is stale)", e.ID, e.Version)
}

// ClaimClosedError is returned for any mutation attempted after closure.
// Final for that request; never retried.
type ClaimClosedError struct {
	ClaimNumber string
}

func (e *ClaimClosedError) Error() string {
	return fmt.Sprintf("claim %s is closed and permanently immutable", e.ClaimNumber)
}
