/*
Package hours implements the timecard engine: reporting periods, timecards,
hour entries, and the rules that govern them.

KEY CONCEPTS:
  ReportingPeriod: A fixed date range employees log hours against, carrying
                   the period's min/max working-hour policy.
  Timecard:        One per (user, reporting period) pair. Holds the
                   submitted flag that gates editing and reporting.
  TimecardObject:  A single hour entry on a timecard, pointing at a project.
                   Its grade, revenue account, expense account, and mirrored
                   submitted flag are DERIVED: recomputed on every save,
                   never taken from the caller.

RULES (each in its own file):
  window.go:   which periods are still open for editing, relative to an
               explicit "today"
  validate.go: min/max bounds on a timecard's hour total
  classify.go: derived-field stamping via effective-dated lookups

DESIGN PRINCIPLES:
  1. Explicit time: rules take a dates.Date, they never read the clock
  2. Explicit writes: validation and classification are called by the write
     path, nothing happens implicitly on construction
  3. Precision: decimal.Decimal for hours, never float

SEE ALSO:
  - service.go: the write path tying the rules together
  - store.go: persistence interfaces
*/
package hours

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// REPORTING PERIOD
// =============================================================================

// ReportingPeriod is a date range hours are reported against, with the
// working-hour policy for that range. Periods are created by an
// administrator before anyone can log time against them.
type ReportingPeriod struct {
	ID        string
	StartDate dates.Date
	EndDate   dates.Date

	ExactWorkingHours int
	MinWorkingHours   int
	MaxWorkingHours   int

	// Message is shown at the top of the period's timecard form.
	Message string

	// HolidayPrefills seed brand-new timecards for this period.
	HolidayPrefills []HolidayPrefill

	Created  time.Time
	Modified time.Time
}

// FiscalYear returns the fiscal year the period belongs to. The fiscal year
// runs October through September: October, November, and December of
// calendar year Y are part of FY Y+1.
func (rp *ReportingPeriod) FiscalYear() int {
	return fiscalYearOf(rp.StartDate)
}

func fiscalYearOf(start dates.Date) int {
	switch start.Month() {
	case time.October, time.November, time.December:
		return start.Year() + 1
	default:
		return start.Year()
	}
}

// Label is the period's display form, e.g. "2015-01-01 - 2015-01-07".
func (rp *ReportingPeriod) Label() string {
	return rp.StartDate.String() + " - " + rp.EndDate.String()
}

// Ended reports whether the period is strictly in the past.
func (rp *ReportingPeriod) Ended(today dates.Date) bool {
	return rp.EndDate.Before(today)
}

// HolidayPrefill names a project and hour count to seed into new timecards
// for a period (e.g. 8 hours of "Out Of Office" on a holiday week).
type HolidayPrefill struct {
	ProjectID      string
	HoursPerPeriod int
}

// =============================================================================
// TIMECARD
// =============================================================================

// Timecard is the per-user record for one reporting period. The store
// enforces uniqueness of the (UserID, ReportingPeriodID) pair, so a second
// concurrent create fails instead of silently duplicating.
type Timecard struct {
	ID                string
	UserID            string
	ReportingPeriodID string
	Submitted         bool
	Created           time.Time
	Modified          time.Time
}

// =============================================================================
// TIMECARD OBJECT - a single hour entry
// =============================================================================

// TimecardObject is one hour entry on a timecard. Grade, the two
// profit/loss accounts, and Submitted are derived fields: the classifier
// overwrites all four on every save, so caller-supplied values are never
// trusted.
type TimecardObject struct {
	ID         string
	TimecardID string
	ProjectID  string

	// HoursSpent may be unset while a card is a draft; an unset value
	// contributes zero to the period total.
	HoursSpent decimal.NullDecimal

	Notes string

	// Derived fields. See Classifier.Stamp.
	Grade                    *employees.EmployeeGrade
	RevenueProfitLossAccount *projects.ProfitLossAccount
	ExpenseProfitLossAccount *projects.ProfitLossAccount
	Submitted                bool

	Created  time.Time
	Modified time.Time
}

// Hours returns the entry's hours, zero when unset.
func (e *TimecardObject) Hours() decimal.Decimal {
	if !e.HoursSpent.Valid {
		return decimal.Zero
	}
	return e.HoursSpent.Decimal
}

// NotesList splits free-text notes into lines for display.
func (e *TimecardObject) NotesList() []string {
	return strings.Split(e.Notes, "\n")
}

// =============================================================================
// TARGET - planning record, same fiscal-year rule as periods
// =============================================================================

// Target is an administrative planning record for a date range. It carries
// no timecard behavior; it exists so reports can group hour and revenue
// goals by fiscal year.
type Target struct {
	ID        string
	Name      string
	StartDate dates.Date
	EndDate   dates.Date

	HoursTargetCR     int
	HoursTargetPlan   int
	RevenueTargetCR   int
	RevenueTargetPlan int

	Periods   int
	LaborRate int
}

// FiscalYear returns the fiscal year the target belongs to.
func (t *Target) FiscalYear() int {
	return fiscalYearOf(t.StartDate)
}
