// Package care holds the shared domain vocabulary of the patient-monitoring
// core: the error taxonomy every component surfaces unchanged, and the
// pagination envelope used by list operations.
package care

import (
	"errors"
	"fmt"
)

// The four error kinds callers are expected to branch on with errors.Is.
// Components never retry or downgrade these internally; a concurrency race
// surfaces as ErrConflict or ErrInvalidTransition and the caller decides
// whether to re-read and retry.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
)

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Entity string // "alert", "assignment", "patient", "healthcare worker"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError carries enough detail to identify the violated rule.
type ConflictError struct {
	Entity string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Entity, ErrConflict, e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransitionError reports an illegal lifecycle transition, naming the alert
// and the states involved so the caller can re-read and decide.
type TransitionError struct {
	AlertID string
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("alert %s: %v: %s -> %s", e.AlertID, ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError rejects a request before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
