/*
errors.go - Centralized error types for the adjustment engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages should wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - Bad rule fields or empty selections, caught
     before any network call
  2. Resolution errors - A per-employee baseline lookup failed; isolated
     to that employee, never aborts the batch
  3. Submission errors - A period-group create-batch call failed
     server-side; surfaced only after all groups resolve

USAGE:
  if errors.Is(err, adjust.ErrNoEmployees) { ... }

  var resErr *adjust.ResolutionError
  if errors.As(err, &resErr) { ... }

SEE ALSO:
  - expand.go: Returns validation errors
  - resolver.go: Produces ResolutionError
  - submit.go: Produces SubmissionError
*/
package adjust

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoEmployees is returned when an expansion is attempted with an
	// empty employee selection. No expansion work happens.
	ErrNoEmployees = errors.New("no employees selected")

	// ErrNoPeriods is returned when a one-time rule has no target periods.
	ErrNoPeriods = errors.New("no periods selected for one-time rule")

	// ErrReverseDivideByZero is returned by ReverseBaseline for the
	// degenerate 100 percent decrement. Validate rejects the configuration
	// up front; this sentinel guards direct calls.
	ErrReverseDivideByZero = errors.New("cannot reverse a 100 percent decrement")

	// ErrItemNotFound is returned when editing or removing a staged line
	// item that does not exist.
	ErrItemNotFound = errors.New("line item not found in staging list")

	// ErrNothingToSubmit is returned when submission is invoked with an
	// empty staging list.
	ErrNothingToSubmit = errors.New("nothing to submit")

	// ErrEmployeeNotFound is returned by a Directory when the employee
	// does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleError describes a rule field that failed validation.
type RuleError struct {
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid rule: %s %s", e.Field, e.Reason)
}

// ResolutionError records a failed baseline lookup for one employee.
// It never aborts a batch; the employee's line items are marked unresolved
// and excluded from amount computation until retried.
type ResolutionError struct {
	EmployeeID EmployeeID
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("baseline resolution failed for %s: %v", e.EmployeeID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// SubmissionError records a failed create-batch call for one period group.
type SubmissionError struct {
	Period        PeriodKey
	CorrelationID string
	Err           error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("batch submission failed for %s: %v", e.Period, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError returns true for errors caught before any network call.
// These block submission with inline messaging, never as a generic failure.
func IsValidationError(err error) bool {
	var ruleErr *RuleError
	return errors.As(err, &ruleErr) ||
		errors.Is(err, ErrNoEmployees) ||
		errors.Is(err, ErrNoPeriods) ||
		errors.Is(err, ErrReverseDivideByZero) ||
		errors.Is(err, ErrNothingToSubmit)
}
