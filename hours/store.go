/*
store.go - Persistence interfaces for timecard records

PURPOSE:
  Defines the interface between the timecard rules and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Reporting period, timecard, and entry persistence
  TxStore: Transactional wrapper for the save path

UNIQUENESS:
  Implementations must enforce two constraints:
  - one reporting period per (start date, end date) pair
  - one timecard per (user, reporting period) pair
  The second serializes concurrent timecard creates: the loser gets
  ErrDuplicateTimecard instead of a silent duplicate.

ATOMIC SAVES:
  Derived-field stamping happens inside the same transaction as the entry
  write, so a stored entry's grade and account snapshots are never stale
  relative to the entry itself. See TimesheetService.SaveTimecard.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - hours/store:  in-memory store for testing
*/
package hours

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timecard-engine/dates"
)

// =============================================================================
// STORE
// =============================================================================

// Store handles persistence of reporting periods, timecards, and entries.
type Store interface {
	// CreateReportingPeriod persists a new period.
	// Returns ErrDuplicatePeriod when the date pair is taken.
	CreateReportingPeriod(ctx context.Context, rp *ReportingPeriod) error

	// ReportingPeriods returns all periods ordered by start date descending.
	ReportingPeriods(ctx context.Context) ([]*ReportingPeriod, error)

	// ReportingPeriodByStart returns the period starting on the given date.
	// Returns ErrPeriodNotFound when absent.
	ReportingPeriodByStart(ctx context.Context, start dates.Date) (*ReportingPeriod, error)

	// CreateTimecard persists a new timecard.
	// Returns ErrDuplicateTimecard when the (user, period) pair is taken.
	CreateTimecard(ctx context.Context, tc *Timecard) error

	// TimecardFor returns the timecard for a (user, period) pair.
	// Returns ErrTimecardNotFound when absent.
	TimecardFor(ctx context.Context, userID, periodID string) (*Timecard, error)

	// UpdateTimecard persists the submitted flag and modified timestamp.
	UpdateTimecard(ctx context.Context, tc *Timecard) error

	// EntriesFor returns a timecard's entries.
	EntriesFor(ctx context.Context, timecardID string) ([]*TimecardObject, error)

	// ReplaceEntries atomically replaces a timecard's entry set.
	ReplaceEntries(ctx context.Context, timecardID string, entries []*TimecardObject) error

	// LastSubmittedTimecard returns the user's submitted timecard for the
	// most recent period starting before the given date, or
	// ErrTimecardNotFound. Used to carry project selections forward.
	LastSubmittedTimecard(ctx context.Context, userID string, before dates.Date) (*Timecard, error)

	// PeriodExport returns one row per entry whose parent timecard for the
	// period is submitted. Unsubmitted timecards contribute no rows.
	PeriodExport(ctx context.Context, periodID string) ([]ExportRow, error)
}

// TxStore wraps Store with transaction support. The save path runs
// validation, stamping, and the entry write inside one WithTx call.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// EXPORT ROW
// =============================================================================

// ExportRow is one line of a reporting period's CSV export.
type ExportRow struct {
	PeriodLabel string
	Modified    time.Time
	Username    string
	ProjectName string
	Hours       decimal.Decimal
}

// HoursString renders hours with exactly two fraction digits, e.g. "28.00".
func (r ExportRow) HoursString() string {
	return r.Hours.StringFixed(2)
}
