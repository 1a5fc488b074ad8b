/*
errors.go - Centralized error types for the timecard engine

ERROR CATEGORIES:
  1. Validation errors - hour-total bound violations, surfaced to the user
     as form errors
  2. Editing errors - writes against a period outside its editable window
  3. Store errors - missing or duplicate records

Absence of a resolvable grade or profit/loss account is NOT an error
anywhere in this package; it is modeled as a nil derived field.
*/
package hours

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTooManyHours is returned when a timecard's total exceeds the
	// period's maximum working hours.
	ErrTooManyHours = errors.New("total hours exceed maximum working hours")

	// ErrTooFewHours is returned when a timecard's total falls short of the
	// period's minimum working hours.
	ErrTooFewHours = errors.New("total hours below minimum working hours")

	// ErrNotEditable is returned when a submitted timecard's period has
	// fallen out of the amendable window. Callers should fall back to the
	// read-only detail view.
	ErrNotEditable = errors.New("reporting period no longer editable")

	// ErrPeriodNotFound is returned when a reporting period doesn't exist.
	ErrPeriodNotFound = errors.New("reporting period not found")

	// ErrTimecardNotFound is returned when a timecard doesn't exist.
	ErrTimecardNotFound = errors.New("timecard not found")

	// ErrDuplicatePeriod is returned when a period with the same start or
	// end date already exists.
	ErrDuplicatePeriod = errors.New("reporting period already exists")

	// ErrDuplicateTimecard is returned when a timecard already exists for
	// the (user, reporting period) pair. Concurrent creates surface here.
	ErrDuplicateTimecard = errors.New("timecard already exists for user and period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports an hour-total bound violation. It unwraps to
// ErrTooManyHours or ErrTooFewHours.
type ValidationError struct {
	Total decimal.Decimal
	Limit int
	kind  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: total %s, limit %d", e.kind, e.Total.StringFixed(2), e.Limit)
}

func (e *ValidationError) Unwrap() error { return e.kind }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a user-visible hour-bound rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTooManyHours) || errors.Is(err, ErrTooFewHours)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) || errors.Is(err, ErrTimecardNotFound)
}
