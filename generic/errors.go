/*
errors.go - Centralized error types for the household shell

PURPOSE:
  The day-log engine itself has no failure modes: unknown ids and invalid
  preconditions are no-ops, numbers are clamped. Errors only exist in the
  layers around it (stores, services, API), and they are defined here so
  every layer classifies them the same way.

ERROR CATEGORIES:
  1. Not found - child, day log, or template missing
  2. Client errors - malformed settings/templates, ineligible actions,
     writes to compacted logs
  3. Store errors - wrapped with fmt.Errorf("...: %w")

USAGE:
  if errors.Is(err, generic.ErrChildNotFound) {
      // 404
  }

SEE ALSO:
  - household/service.go: Returns these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrChildNotFound is returned when a referenced child doesn't exist.
	ErrChildNotFound = errors.New("child not found")

	// ErrDayLogNotFound is returned when no ledger is stored for (child, date).
	ErrDayLogNotFound = errors.New("day log not found")

	// ErrTemplateNotFound is returned when a referenced template doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrVoucherNotFound is returned when a voucher id is not in the inventory.
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrInvalidSettings is returned when settings break their invariants.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidTemplate is returned when a template definition is malformed.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidInput is returned for malformed child, voucher or curse input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

	// ErrNotEligible is returned when a bonus or penalty may not be used
	// right now: already used today, time capped, or not assigned.
	ErrNotEligible = errors.New("not eligible")

	// ErrDayLogCompacted is returned when mutating a compacted ledger.
	// Compaction is one-way; detail lists are gone.
	ErrDayLogCompacted = errors.New("day log is compacted")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field of a settings, template or
// child document.
type ValidationError struct {
	Field   string
	Message string
	Kind    error // ErrInvalidSettings, ErrInvalidTemplate or ErrInvalidInput
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrInvalidTemplate) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrDayLogCompacted)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChildNotFound) ||
		errors.Is(err, ErrDayLogNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrVoucherNotFound)
}
