/*
errors.go - Centralized error types for the compliance engine

PURPOSE:
  All error classes in one place. The distinction below is behavioral,
  not just taxonomy - callers branch on it:

  1. Validation failures - bad caller input (missing identifiers, invalid
     dates, out-of-range ages). Raised at each calculator's boundary and
     converted by the orchestration layer into a failed outcome for that
     worker only.

  2. Infrastructure failures - unreadable or unparseable configuration
     resources (rate table, classification rules). These fail the whole
     calculation for the worker; there is no safe default rate to fall
     back to.

  Data-quality degradations (missing age, zero hours with pay, negative
  computed rate) are NOT errors. They degrade the verdict to AMBER with a
  machine-readable flag - see status.go.

USAGE:
  if nmw.IsValidation(err) { ... reject input ... }
  if nmw.IsInfrastructure(err) { ... fail the calculation ... }
*/
package nmw

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the class sentinel for caller-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrRateNotFound is returned when no age band matches a worker. This is
	// a rate-table integrity failure, not a user input failure.
	ErrRateNotFound = errors.New("no matching rate band")

	// ErrInfrastructure is the class sentinel for configuration resources
	// that cannot be read or parsed.
	ErrInfrastructure = errors.New("configuration resource failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports invalid caller input on a specific field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RateNotFoundError reports that the rate table held no band covering the
// worker's age on the reference date.
type RateNotFoundError struct {
	Age           int
	ReferenceDate Date
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no rate band covers age %d on %s", e.Age, e.ReferenceDate)
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

// InfrastructureError wraps a failure to load or parse a configuration
// resource. The resource name identifies which one ("rate table",
// "classification rules").
type InfrastructureError struct {
	Resource string
	Err      error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Resource, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInfrastructure) match any InfrastructureError.
func (e *InfrastructureError) Is(target error) bool { return target == ErrInfrastructure }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a caller-input failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsRateNotFound reports whether err is a rate-table integrity failure.
func IsRateNotFound(err error) bool { return errors.Is(err, ErrRateNotFound) }

// IsInfrastructure reports whether err is a configuration-resource failure.
func IsInfrastructure(err error) bool { return errors.Is(err, ErrInfrastructure) }
