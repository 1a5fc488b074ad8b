/*
validate.go - Hour-total bounds for a timecard

PURPOSE:
  Enforces the reporting period's min/max working-hour policy over the full
  set of entries being saved. Validation is explicit: the write path calls
  ValidateTotal before anything is persisted, and a failure blocks the
  whole batch. Nothing validates implicitly on construction.

EXEMPTION:
  Users on an alternative work schedule (AWS-eligible) are exempt from the
  bounds entirely; their total may be anything, including zero.
*/
package hours

import "github.com/shopspring/decimal"

// TotalHours sums hours across entries. Entries with unset hours
// contribute zero.
func TotalHours(entries []*TimecardObject) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Hours())
	}
	return total
}

// ValidateTotal checks the entry set against the period's hour policy.
// The upper bound is checked first; at most one error is returned.
// Returns nil for exempt users regardless of the total.
func ValidateTotal(entries []*TimecardObject, rp *ReportingPeriod, exempt bool) error {
	if exempt {
		return nil
	}
	total := TotalHours(entries)
	if total.GreaterThan(decimal.NewFromInt(int64(rp.MaxWorkingHours))) {
		return &ValidationError{Total: total, Limit: rp.MaxWorkingHours, kind: ErrTooManyHours}
	}
	if total.LessThan(decimal.NewFromInt(int64(rp.MinWorkingHours))) {
		return &ValidationError{Total: total, Limit: rp.MinWorkingHours, kind: ErrTooFewHours}
	}
	return nil
}
