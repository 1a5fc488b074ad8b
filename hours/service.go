/*
service.go - The timecard write path

PURPOSE:
  TimesheetService ties the rules together for each request:

    edit gate (window.go) -> hour bounds (validate.go)
      -> derived-field stamping (classify.go) -> atomic entry write

  Everything is explicit and synchronous: one request, one transaction, no
  background work. The caller passes "today"; the service never reads the
  clock for rule decisions (only for record timestamps).

SAVE SEMANTICS:
  - SaveOnly drafts skip the hour-bound validation so users can park
    partial cards; submission always validates.
  - The entry set is replaced wholesale. Validation failure blocks the
    whole batch before anything is written.
  - Stamping runs inside the same store transaction as the entry write, so
    persisted grade/account snapshots are never stale relative to the
    entries they describe.
*/
package hours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// SERVICE
// =============================================================================

// TimesheetService handles timecard reads and writes for one backing store.
type TimesheetService struct {
	store      TxStore
	projects   projects.Catalog
	staff      employees.Directory
	classifier *Classifier
}

// NewTimesheetService wires the service and its classifier.
func NewTimesheetService(store TxStore, catalog projects.Catalog, staff employees.Directory) *TimesheetService {
	return &TimesheetService{
		store:      store,
		projects:   catalog,
		staff:      staff,
		classifier: &Classifier{Grades: staff, Accounts: catalog},
	}
}

// =============================================================================
// INPUT / VIEW TYPES
// =============================================================================

// EntryInput is one hour entry as received from the form layer. Derived
// fields are deliberately absent: callers cannot supply them.
type EntryInput struct {
	ID         string
	ProjectID  string
	HoursSpent decimal.NullDecimal
	Notes      string
}

// SaveInput is a full timecard save request.
type SaveInput struct {
	UserID      string
	PeriodStart dates.Date
	Today       dates.Date
	Entries     []EntryInput

	// SaveOnly parks a draft without enforcing hour bounds.
	SaveOnly bool

	// Submit flips the timecard to submitted after a successful save.
	Submit bool
}

// TimecardView is what the form layer renders.
type TimecardView struct {
	Period   *ReportingPeriod
	Timecard *Timecard
	Entries  []*TimecardObject

	// Suggested prefill entries for a brand-new card, not yet persisted.
	Suggested []*TimecardObject

	Editable bool
}

// =============================================================================
// PERIODS
// =============================================================================

// CreateReportingPeriod validates and persists a new period.
func (s *TimesheetService) CreateReportingPeriod(ctx context.Context, rp *ReportingPeriod) error {
	if !rp.StartDate.Before(rp.EndDate) {
		return fmt.Errorf("reporting period end %s must be after start %s", rp.EndDate, rp.StartDate)
	}
	if rp.ID == "" {
		rp.ID = ulid.Make().String()
	}
	now := time.Now().UTC()
	rp.Created, rp.Modified = now, now
	return s.store.CreateReportingPeriod(ctx, rp)
}

// ListPeriods returns all periods bucketed by editability as of today.
func (s *TimesheetService) ListPeriods(ctx context.Context, today dates.Date) (PeriodBuckets, error) {
	periods, err := s.store.ReportingPeriods(ctx)
	if err != nil {
		return PeriodBuckets{}, err
	}
	return BucketPeriods(periods, today), nil
}

// =============================================================================
// TIMECARDS
// =============================================================================

// OpenTimecard returns the user's timecard for the period starting at
// start, creating it on first open. A brand-new card comes back with
// suggested prefill entries: the period's holiday prefills when present,
// otherwise the project selections (hours left blank) from the user's most
// recent submitted timecard.
func (s *TimesheetService) OpenTimecard(ctx context.Context, userID string, start, today dates.Date) (*TimecardView, error) {
	periods, err := s.store.ReportingPeriods(ctx)
	if err != nil {
		return nil, err
	}
	period := findPeriod(periods, start)
	if period == nil {
		return nil, ErrPeriodNotFound
	}

	created := false
	tc, err := s.store.TimecardFor(ctx, userID, period.ID)
	if errors.Is(err, ErrTimecardNotFound) {
		now := time.Now().UTC()
		tc = &Timecard{
			ID:                ulid.Make().String(),
			UserID:            userID,
			ReportingPeriodID: period.ID,
			Created:           now,
			Modified:          now,
		}
		err = s.store.CreateTimecard(ctx, tc)
		if errors.Is(err, ErrDuplicateTimecard) {
			// Lost a concurrent create; the uniqueness constraint
			// serialized us. Use the winner.
			tc, err = s.store.TimecardFor(ctx, userID, period.ID)
		} else {
			created = err == nil
		}
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.store.EntriesFor(ctx, tc.ID)
	if err != nil {
		return nil, err
	}

	view := &TimecardView{
		Period:   period,
		Timecard: tc,
		Entries:  entries,
		Editable: IsEditable(periods, period, tc.Submitted, today),
	}
	if created && len(entries) == 0 {
		view.Suggested, err = s.prefillEntries(ctx, userID, period)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// prefillEntries builds unsaved suggestions for a new timecard.
func (s *TimesheetService) prefillEntries(ctx context.Context, userID string, period *ReportingPeriod) ([]*TimecardObject, error) {
	if len(period.HolidayPrefills) > 0 {
		var out []*TimecardObject
		for _, hp := range period.HolidayPrefills {
			out = append(out, &TimecardObject{
				ProjectID: hp.ProjectID,
				HoursSpent: decimal.NullDecimal{
					Decimal: decimal.NewFromInt(int64(hp.HoursPerPeriod)),
					Valid:   true,
				},
			})
		}
		return out, nil
	}

	last, err := s.store.LastSubmittedTimecard(ctx, userID, period.StartDate)
	if errors.Is(err, ErrTimecardNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	previous, err := s.store.EntriesFor(ctx, last.ID)
	if err != nil {
		return nil, err
	}
	var out []*TimecardObject
	for _, e := range previous {
		// Carry the project forward, leave hours blank.
		out = append(out, &TimecardObject{ProjectID: e.ProjectID})
	}
	return out, nil
}

// SaveTimecard runs the full write path for a timecard edit: edit gate,
// hour bounds, derived-field stamping, and an atomic replace of the entry
// set. The timecard is created on the fly when this is the user's first
// write against the period.
func (s *TimesheetService) SaveTimecard(ctx context.Context, in SaveInput) (*Timecard, error) {
	periods, err := s.store.ReportingPeriods(ctx)
	if err != nil {
		return nil, err
	}
	period := findPeriod(periods, in.PeriodStart)
	if period == nil {
		return nil, ErrPeriodNotFound
	}

	tc, err := s.store.TimecardFor(ctx, in.UserID, period.ID)
	if err != nil && !errors.Is(err, ErrTimecardNotFound) {
		return nil, err
	}
	submitted := tc != nil && tc.Submitted
	if !IsEditable(periods, period, submitted, in.Today) {
		return nil, ErrNotEditable
	}

	now := time.Now().UTC()
	entries := make([]*TimecardObject, 0, len(in.Entries))
	for _, ei := range in.Entries {
		id := ei.ID
		if id == "" {
			id = ulid.Make().String()
		}
		entries = append(entries, &TimecardObject{
			ID:         id,
			ProjectID:  ei.ProjectID,
			HoursSpent: ei.HoursSpent,
			Notes:      ei.Notes,
			Created:    now,
			Modified:   now,
		})
	}

	// Bounds are enforced before anything is persisted; a draft save may
	// park an incomplete card.
	if !in.SaveOnly {
		exempt, err := s.staff.IsAWSEligible(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if err := ValidateTotal(entries, period, exempt); err != nil {
			return nil, err
		}
	}

	userData, err := s.staff.UserDataFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(txs Store) error {
		if tc == nil {
			tc = &Timecard{
				ID:                ulid.Make().String(),
				UserID:            in.UserID,
				ReportingPeriodID: period.ID,
				Created:           now,
			}
			tc.Submitted = in.Submit
			tc.Modified = now
			if err := txs.CreateTimecard(ctx, tc); err != nil {
				return err
			}
		} else {
			if in.Submit {
				// Idempotent: re-submitting keeps the record.
				tc.Submitted = true
			}
			tc.Modified = now
			if err := txs.UpdateTimecard(ctx, tc); err != nil {
				return err
			}
		}

		for _, entry := range entries {
			entry.TimecardID = tc.ID
			project, err := s.projects.ProjectByID(ctx, entry.ProjectID)
			if err != nil {
				return err
			}
			ec := EntryContext{Timecard: tc, Period: period, Project: project, UserData: userData}
			if err := s.classifier.Stamp(ctx, entry, ec); err != nil {
				return err
			}
		}
		return txs.ReplaceEntries(ctx, tc.ID, entries)
	})
	if err != nil {
		return nil, err
	}
	return tc, nil
}

// Submit marks the user's timecard for the period as submitted, re-running
// validation and re-stamping the stored entries so the mirrored flag stays
// consistent. Submitting an already-submitted card is a no-op save.
func (s *TimesheetService) Submit(ctx context.Context, userID string, start, today dates.Date) (*Timecard, error) {
	period, err := s.store.ReportingPeriodByStart(ctx, start)
	if err != nil {
		return nil, err
	}
	tc, err := s.store.TimecardFor(ctx, userID, period.ID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.EntriesFor(ctx, tc.ID)
	if err != nil {
		return nil, err
	}
	in := SaveInput{
		UserID:      userID,
		PeriodStart: start,
		Today:       today,
		Submit:      true,
	}
	for _, e := range entries {
		in.Entries = append(in.Entries, EntryInput{
			ID:         e.ID,
			ProjectID:  e.ProjectID,
			HoursSpent: e.HoursSpent,
			Notes:      e.Notes,
		})
	}
	return s.SaveTimecard(ctx, in)
}

// =============================================================================
// REPORTS
// =============================================================================

// PeriodExport returns the CSV rows for a period: one per entry whose
// parent timecard is submitted.
func (s *TimesheetService) PeriodExport(ctx context.Context, start dates.Date) ([]ExportRow, error) {
	period, err := s.store.ReportingPeriodByStart(ctx, start)
	if err != nil {
		return nil, err
	}
	return s.store.PeriodExport(ctx, period.ID)
}

// SelectableProjects lists projects valid for the period starting at start.
func (s *TimesheetService) SelectableProjects(ctx context.Context, start, today dates.Date) ([]*projects.Project, error) {
	period, err := s.store.ReportingPeriodByStart(ctx, start)
	if err != nil {
		return nil, err
	}
	return s.projects.SelectableProjects(ctx, period.StartDate, today)
}

func findPeriod(periods []*ReportingPeriod, start dates.Date) *ReportingPeriod {
	for _, rp := range periods {
		if rp.StartDate.Equal(start) {
			return rp
		}
	}
	return nil
}
