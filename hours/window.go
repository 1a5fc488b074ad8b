/*
window.go - Reporting period bucketing and the amendable window

PURPOSE:
  Decides, for any given date, which reporting periods are still open for
  editing. Periods fall into three buckets relative to "today":

  Uncompleted:         The period has not ended. This covers the current
                       period and any already-created future period, so
                       users can work ahead once the next period exists.
  AmendableCompleted:  The single most recently ended period. Its timecard
                       may still be amended.
  Completed:           Every older ended period. Read-only.

  An unsubmitted timecard is editable no matter how old its period is;
  users must always be able to finish a stale form. The buckets only gate
  submitted timecards.

DESIGN:
  Pure functions over an explicit, pre-sorted period list and an explicit
  today. Nothing here reads the clock.
*/
package hours

import "github.com/warp/timecard-engine/dates"

// =============================================================================
// PERIOD STATUS
// =============================================================================

type PeriodStatus string

const (
	StatusUncompleted        PeriodStatus = "uncompleted"
	StatusAmendableCompleted PeriodStatus = "amendable_completed"
	StatusCompleted          PeriodStatus = "completed"
)

// PeriodBuckets groups reporting periods by editability, newest first
// within each bucket.
type PeriodBuckets struct {
	Uncompleted        []*ReportingPeriod
	AmendableCompleted []*ReportingPeriod
	Completed          []*ReportingPeriod
}

// =============================================================================
// BUCKETING
// =============================================================================

// BucketPeriods classifies periods relative to today. The input must be
// sorted by start date descending (the store's list order). Walking newest
// first, periods that have not ended are Uncompleted; the first ended
// period encountered is AmendableCompleted; everything after it is
// Completed. Under normal sequential period creation this yields exactly
// one amendable period, and creating a new period immediately pushes the
// predecessor of the previously-amendable period out of the window.
func BucketPeriods(periods []*ReportingPeriod, today dates.Date) PeriodBuckets {
	var b PeriodBuckets
	for _, rp := range periods {
		switch {
		case !rp.Ended(today):
			b.Uncompleted = append(b.Uncompleted, rp)
		case len(b.AmendableCompleted) == 0:
			b.AmendableCompleted = append(b.AmendableCompleted, rp)
		default:
			b.Completed = append(b.Completed, rp)
		}
	}
	return b
}

// StatusOf returns the bucket a single period falls into. periods must be
// the full sorted list containing target.
func StatusOf(periods []*ReportingPeriod, target *ReportingPeriod, today dates.Date) PeriodStatus {
	if !target.Ended(today) {
		return StatusUncompleted
	}
	for _, rp := range periods {
		if !rp.Ended(today) {
			continue
		}
		// First ended period in descending order is the amendable one.
		if rp.ID == target.ID {
			return StatusAmendableCompleted
		}
		return StatusCompleted
	}
	return StatusCompleted
}

// IsEditable reports whether the timecard for target may still be edited.
// Unsubmitted timecards are always editable, regardless of date. Submitted
// ones are editable only while their period is Uncompleted or
// AmendableCompleted. A period whose start date is still in the future
// counts as Uncompleted and is therefore open for working ahead.
func IsEditable(periods []*ReportingPeriod, target *ReportingPeriod, submitted bool, today dates.Date) bool {
	if !submitted {
		return true
	}
	return StatusOf(periods, target, today) != StatusCompleted
}
